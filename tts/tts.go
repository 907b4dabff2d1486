// Package tts wraps Google Cloud Text-to-Speech with the Neural2 voices
// the front end plays back.
package tts

import (
	"context"
	"fmt"
	"log"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// Synthesizer converts reply text into audio. The server treats it as an
// optional collaborator; a nil Synthesizer disables the endpoint.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

type voice struct {
	name         string
	languageCode string
}

// Natural-sounding Neural2 voices per language.
var voiceMap = map[string]voice{
	"ja-JP": {name: "ja-JP-Neural2-B", languageCode: "ja-JP"},
	"en-US": {name: "en-US-Neural2-F", languageCode: "en-US"},
	"ko-KR": {name: "ko-KR-Neural2-A", languageCode: "ko-KR"},
	"zh-CN": {name: "cmn-CN-Neural2-A", languageCode: "cmn-CN"},
	"es-ES": {name: "es-ES-Neural2-A", languageCode: "es-ES"},
	"pt-BR": {name: "pt-BR-Neural2-A", languageCode: "pt-BR"},
}

const fallbackLang = "en-US"

// Client is a Google Cloud TTS backed Synthesizer.
type Client struct {
	client *texttospeech.Client
}

// New creates the TTS client from service-account credentials.
func New(ctx context.Context, credentialsJSON []byte) (*Client, error) {
	client, err := texttospeech.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("create TTS client: %w", err)
	}
	log.Println("Google Cloud TTS client initialized")
	return &Client{client: client}, nil
}

// Synthesize converts text to MP3 audio in the requested language,
// falling back to English for unknown language tags.
func (c *Client) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	v, ok := voiceMap[lang]
	if !ok {
		v = voiceMap[fallbackLang]
	}

	resp, err := c.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: v.languageCode,
			Name:         v.name,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  1.0,
			Pitch:         0.0,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return resp.AudioContent, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}
