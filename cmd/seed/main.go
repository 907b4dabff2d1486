// Command seed populates the Menu and Staff tabs with the current Guu
// Original Thurlow dinner menu. Run once against a fresh spreadsheet.
package main

import (
	"context"
	"log"

	"github.com/takamineyasuyuki/sumi-x-orator/config"
	"github.com/takamineyasuyuki/sumi-x-orator/menu"
	"github.com/takamineyasuyuki/sumi-x-orator/sheets"
)

var menuRows = []menu.MenuRow{
	// Oden
	{Active: true, Name: "Assorted Oden", Category: "レギュラー", Description: "5pc chef's choice, Japanese hot pot with fish broth", Price: 14},
	{Active: true, Name: "Daikon", Category: "レギュラー", Description: "Japanese radish in fish broth", Price: 3.5},
	{Active: true, Name: "Deep-fried Tofu", Category: "レギュラー", Description: "Atsuage tofu in fish broth", Price: 3.5},
	// Salad & appetizer
	{Active: true, Name: "Daikon Salad", Category: "レギュラー", Description: "Daikon radish & jellyfish salad w/ Guu dressing", Price: 11},
	{Active: true, Name: "Sashimi Salad", Category: "レギュラー", Description: "Assorted sashimi salad w/ plum dressing & wasabi mayo", Allergens: "fish", Price: 17},
	{Active: true, Name: "Salmon Yukke", Category: "レギュラー", Description: "Chopped salmon sashimi w/ garlic teriyaki sauce", Allergens: "fish", Price: 12},
	{Active: true, Name: "Takoyaki", Category: "レギュラー", Description: "Deep-fried octopus balls w/ tonkatsu sauce & mustard mayo", Allergens: "gluten, egg", Price: 9},
	{Active: true, Name: "Edamame", Category: "レギュラー", Description: "Boiled edamame beans w/ sea salt", Allergens: "soy", Price: 6.5},
	// Meat & seafood
	{Active: true, Name: "Karaage", Category: "レギュラー", Description: "Deep-fried chicken w/ garlic mayo", Allergens: "gluten, egg", Price: 14},
	{Active: true, Name: "Beef Tataki", Category: "レギュラー", Description: "Thinly sliced seared rare beef w/ green onion, garlic chips, ponzu sauce & wasabi mayo", Price: 14},
	{Active: true, Name: "Ebi Mayo", Category: "レギュラー", Description: "Deep fried prawn w/ chili mayo", Allergens: "shellfish, egg", Price: 15},
	{Active: true, Name: "Spicy Calamari", Category: "レギュラー", Description: "Deep-fried squid w/ spicy mayo", Allergens: "gluten", Price: 14},
	// Rice & noodles
	{Active: true, Name: "Yaki Udon", Category: "レギュラー", Description: "Pan-fried udon w/ beef, mushroom, green onion, fish broth, bonito, soy sauce & butter", Allergens: "gluten, soy", Price: 17.5},
	{Active: true, Name: "Kimchi Fried Rice", Category: "レギュラー", Description: "w/ kimchi, green onion, bacon & egg", Allergens: "egg", Price: 17},
	{Active: true, Name: "Okonomi Yaki", Category: "レギュラー", Description: "Deep-fried Japanese pancake w/ tonkatsu sauce, mustard mayo", Allergens: "gluten, egg", Price: 16},
	// Sweet
	{Active: true, Name: "Yuzu Cheese Cake w/ Green Tea Ice Cream", Category: "レギュラー", Description: "Yuzu cheesecake with matcha ice cream", Allergens: "dairy, egg, gluten", Price: 8},
	{Active: true, Name: "Cream Daifuku w/ Green Tea Ice Cream", Category: "レギュラー", Description: "Mochi daifuku with matcha ice cream. Ask your server about today's available flavors!", Allergens: "dairy", Price: 8},
	// Drinks
	{Active: true, Name: "Sapporo Draft", Category: "ドリンク", Description: "Crisp Japanese lager on tap", Price: 7.5},
	{Active: true, Name: "House Sake", Category: "ドリンク", Description: "Hot or cold junmai sake", Price: 9},
}

var staffRows = []menu.StaffRow{
	{OnShift: true, Name: "しんたろう", Respect: "店長。アレルギー対応の最終確認はこの人", TalkTags: "オデン, 日本酒"},
	{OnShift: true, Name: "ゆうき", Respect: "揚げ場担当5年目", TalkTags: "唐揚げ"},
	{OnShift: false, Name: "まい", Respect: "デザート担当"},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	creds, err := cfg.Credentials()
	if err != nil {
		log.Fatalf("Google credentials required: %v", err)
	}

	ctx := context.Background()
	store, err := sheets.New(ctx, cfg.SheetID, creds)
	if err != nil {
		log.Fatalf("Failed to open spreadsheet: %v", err)
	}

	if err := store.OverwriteMenu(ctx, menuRows); err != nil {
		log.Fatalf("Failed to write menu: %v", err)
	}
	log.Printf("✅ Wrote %d menu rows", len(menuRows))

	if err := store.OverwriteStaff(ctx, staffRows); err != nil {
		log.Fatalf("Failed to write staff: %v", err)
	}
	log.Printf("✅ Wrote %d staff rows", len(staffRows))
}
