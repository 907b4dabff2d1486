package menu

import (
	"strconv"
	"strings"
)

// Placeholder text keeps the bound system instruction from ever carrying
// a dangling empty section.
const (
	MenuPlaceholder  = "メニュー情報はまだ登録されていません。"
	StaffPlaceholder = "今日の出勤スタッフ情報はまだ登録されていません。"

	defaultCategory = "その他"
)

// RenderMenuContext derives the menu half of the grounding context from a
// snapshot. It is a pure function of its input: the persona session
// compares rendered strings byte-for-byte to decide whether a rebuild is
// needed, so identical snapshots must render identically.
func RenderMenuContext(snap *Snapshot) string {
	items := activeNamed(snap)
	if len(items) == 0 {
		return MenuPlaceholder
	}

	// Group by category, preserving first-seen category order.
	var order []string
	grouped := make(map[string][]MenuRow)
	for _, item := range items {
		cat := item.Category
		if cat == "" {
			cat = defaultCategory
		}
		if _, seen := grouped[cat]; !seen {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], item)
	}

	var lines []string
	for _, cat := range order {
		lines = append(lines, "\n["+cat+"]")
		for _, item := range grouped[cat] {
			parts := []string{"- " + item.Name}
			if item.Price > 0 {
				parts = append(parts, "$"+strconv.FormatFloat(item.Price, 'f', -1, 64))
			}
			if item.Description != "" {
				parts = append(parts, "- "+item.Description)
			}
			if item.Chef != "" {
				parts = append(parts, "[Chef: "+item.Chef+"]")
			}
			if item.Allergens != "" {
				parts = append(parts, "(Allergens: "+item.Allergens+")")
			}
			lines = append(lines, strings.Join(parts, " "))
		}
	}

	return strings.Join(lines, "\n")
}

// RenderStaffContext derives the on-shift staff summary, one line per
// member, with the same determinism contract as RenderMenuContext.
func RenderStaffContext(snap *Snapshot) string {
	var lines []string
	if snap != nil {
		for _, s := range snap.Staff {
			if !s.OnShift || s.Name == "" {
				continue
			}
			line := "- " + s.Name
			if s.Respect != "" {
				line += ": " + s.Respect
			}
			if s.TalkTags != "" {
				line += " (話題: " + s.TalkTags + ")"
			}
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return StaffPlaceholder
	}
	return "今日の出勤スタッフ:\n" + strings.Join(lines, "\n")
}

// activeNamed filters to active rows with a non-empty name; unnamed rows
// are never surfaced to rendering.
func activeNamed(snap *Snapshot) []MenuRow {
	if snap == nil {
		return nil
	}
	var items []MenuRow
	for _, item := range snap.Menu {
		if item.Active && item.Name != "" {
			items = append(items, item)
		}
	}
	return items
}
