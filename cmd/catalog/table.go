package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/ogero/mediacatalog/internal/library"
	"github.com/ogero/mediacatalog/pkg/catalog"
)

const slotWidth = 18

func renderView(view library.View, colorize bool) string {
	var b strings.Builder

	hero := heroLine(view.Hero)
	if colorize {
		hero = text.Colors{text.Bold}.Sprint(hero)
	}
	b.WriteString(hero)
	b.WriteString("\n")

	if len(view.Groups) == 0 {
		b.WriteString("No results\n")
		return b.String()
	}

	for _, group := range view.Groups {
		b.WriteString("\n")
		b.WriteString(renderGroup(group, colorize))
		b.WriteString("\n")
	}

	return b.String()
}

func heroLine(hero catalog.Item) string {
	if library.IsNoContent(hero) {
		return hero.Title
	}
	line := hero.Title
	if hero.Year != nil {
		line = fmt.Sprintf("%s (%d)", line, *hero.Year)
	}
	return fmt.Sprintf("%s [%s] %s", line, hero.Category, hero.ID)
}

func renderGroup(group library.Group, colorize bool) string {
	tw := table.NewWriter()
	if colorize {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.SetTitle(group.Label)

	columnConfigs := make([]table.ColumnConfig, 0, library.RowWidth+1)
	columnConfigs = append(columnConfigs, table.ColumnConfig{Number: 1, Align: text.AlignLeft})
	for i := 0; i < library.RowWidth; i++ {
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:           i + 2,
			Align:            text.AlignLeft,
			WidthMax:         slotWidth,
			WidthMaxEnforcer: text.Trim,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	for _, row := range group.Rows {
		r := make(table.Row, 0, len(row.Items)+1)
		r = append(r, row.Label)
		for _, slot := range row.Items {
			if slot == nil {
				r = append(r, "")
				continue
			}
			r = append(r, slot.Title)
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
