package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/takamineyasuyuki/sumi-x-orator/menu"
)

// Sheet column headers. These match the spreadsheet the restaurant staff
// edit, so they stay in the sheet's own language.
const (
	colActive      = "提供中"
	colName        = "メニュー名"
	colCategory    = "カテゴリー"
	colChef        = "担当シェフ"
	colDescription = "魅力・特徴"
	colAllergens   = "アレルギー・注意"
	colPrice       = "価格"

	colOnShift  = "出勤"
	colStaff    = "名前"
	colRespect  = "リスペクト要素"
	colTalkTags = "話題タグ"
)

// recordsFromValues converts a raw value grid into header-keyed records,
// the way gspread's get_all_records reads a worksheet. The first row is
// the header; short rows are padded with empty strings.
func recordsFromValues(values [][]interface{}) []map[string]string {
	if len(values) < 2 {
		return nil
	}

	headers := make([]string, len(values[0]))
	for i, h := range values[0] {
		headers[i] = strings.TrimSpace(cellString(h))
	}

	records := make([]map[string]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := make(map[string]string, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(row) {
				rec[header] = strings.TrimSpace(cellString(row[i]))
			} else {
				rec[header] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func menuRowFromRecord(rec map[string]string) menu.MenuRow {
	price, _ := strconv.ParseFloat(strings.TrimPrefix(rec[colPrice], "$"), 64)
	return menu.MenuRow{
		Name:        rec[colName],
		Category:    rec[colCategory],
		Chef:        rec[colChef],
		Description: rec[colDescription],
		Allergens:   rec[colAllergens],
		Price:       price,
		Active:      strings.EqualFold(rec[colActive], "TRUE"),
	}
}

func staffRowFromRecord(rec map[string]string) menu.StaffRow {
	return menu.StaffRow{
		Name:     rec[colStaff],
		OnShift:  strings.EqualFold(rec[colOnShift], "TRUE"),
		Respect:  rec[colRespect],
		TalkTags: rec[colTalkTags],
	}
}
