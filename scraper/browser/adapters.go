package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"regatta-resume/models"
)

// TableAdapter recognises one family of rendered result tables and reads
// its data rows and header.
type TableAdapter interface {
	Kind() models.TableKind
	Detect(ctx context.Context, page Page) (bool, error)
	ExtractRows(ctx context.Context, page Page) ([][]string, error)
	ExtractHeader(ctx context.Context, page Page) ([]string, error)
}

// selectorAdapter matches rows and cells by CSS selector. Rows are only
// reported when they contain at least one data cell, so header rows built
// from header-tagged cells never appear.
type selectorAdapter struct {
	kind           models.TableKind
	rowSelector    string
	cellSelector   string
	headerSelector string
	headerRow      string
}

// DefaultAdapters returns the supported table families in priority order.
func DefaultAdapters() []TableAdapter {
	return []TableAdapter{
		&selectorAdapter{
			kind:           models.KindClassicTable,
			rowSelector:    "table tbody tr",
			cellSelector:   "td",
			headerSelector: "table thead th",
			headerRow:      "tr",
		},
		&selectorAdapter{
			kind:           models.KindAriaGrid,
			rowSelector:    "[role='row']",
			cellSelector:   "[role='gridcell'], [role='cell']",
			headerSelector: "[role='columnheader']",
			headerRow:      "[role='row']",
		},
		&selectorAdapter{
			kind:           models.KindAgGrid,
			rowSelector:    ".ag-row",
			cellSelector:   ".ag-cell",
			headerSelector: ".ag-header-cell .ag-header-cell-text",
			headerRow:      ".ag-header-row",
		},
		&selectorAdapter{
			kind:           models.KindVirtualized,
			rowSelector:    ".ReactVirtualized__Table__row",
			cellSelector:   ".ReactVirtualized__Table__rowColumn",
			headerSelector: ".ReactVirtualized__Table__headerColumn",
			headerRow:      ".ReactVirtualized__Table__headerRow",
		},
		&selectorAdapter{
			kind:           models.KindDataGrid,
			rowSelector:    ".MuiDataGrid-row, .rdg-row",
			cellSelector:   ".MuiDataGrid-cell, .rdg-cell",
			headerSelector: ".MuiDataGrid-columnHeaderTitle, .rdg-header-row .rdg-cell",
			headerRow:      ".MuiDataGrid-columnHeaders, .rdg-header-row",
		},
	}
}

func (a *selectorAdapter) Kind() models.TableKind { return a.kind }

func (a *selectorAdapter) Detect(ctx context.Context, page Page) (bool, error) {
	var found bool
	script := fmt.Sprintf(`(function() {
		var rows = document.querySelectorAll(%s);
		for (var i = 0; i < rows.length; i++) {
			if (rows[i].querySelector(%s)) return true;
		}
		return false;
	})()`, quote(a.rowSelector), quote(a.cellSelector))
	if err := page.Evaluate(ctx, script, &found); err != nil {
		return false, err
	}
	return found, nil
}

func (a *selectorAdapter) ExtractRows(ctx context.Context, page Page) ([][]string, error) {
	var rows [][]string
	script := fmt.Sprintf(`(function() {
		var out = [];
		document.querySelectorAll(%s).forEach(function(row) {
			var cells = Array.from(row.querySelectorAll(%s));
			if (cells.length === 0) return;
			out.push(cells.map(function(c) {
				return (c.innerText || c.textContent || '').trim();
			}));
		});
		return out;
	})()`, quote(a.rowSelector), quote(a.cellSelector))
	if err := page.Evaluate(ctx, script, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (a *selectorAdapter) ExtractHeader(ctx context.Context, page Page) ([]string, error) {
	var header []string
	script := fmt.Sprintf(`(function() {
		var first = document.querySelector(%[1]s);
		if (!first) return [];
		var row = first.closest(%[2]s) || first.parentElement;
		return Array.from(row.querySelectorAll(%[1]s)).map(function(h) {
			return (h.innerText || h.textContent || '').trim();
		});
	})()`, quote(a.headerSelector), quote(a.headerRow))
	if err := page.Evaluate(ctx, script, &header); err != nil {
		return nil, err
	}
	return header, nil
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

const scrollScript = `(function() {
	var sel = "div[style*='overflow'], div[class*='scroll'], .ag-body-viewport, " +
		".MuiDataGrid-virtualScroller, .ReactVirtualized__Grid";
	document.querySelectorAll(sel).forEach(function(el) {
		try { el.scrollTop = el.scrollTop + el.clientHeight; } catch (e) {}
	});
	window.scrollBy(0, Math.max(600, window.innerHeight));
	return true;
})()`

const pageTextScript = `(function() {
	return (document.body && (document.body.innerText || '')) || '';
})()`
