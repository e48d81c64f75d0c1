package logs

import (
	"time"

	"trustcast/internal/models"
)

// Pager holds the viewer state over one log snapshot: active filter and
// current page. Changing the filter returns to page 1.
type Pager struct {
	entries  []models.LogEntry
	filter   string
	page     int
	pageSize int
}

func NewPager(entries []models.LogEntry, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &Pager{
		entries:  entries,
		filter:   FilterAll,
		page:     1,
		pageSize: pageSize,
	}
}

// SetFilter switches the severity filter and resets to page 1.
func (p *Pager) SetFilter(filter string) error {
	f, err := ParseFilter(filter)
	if err != nil {
		return err
	}

	p.filter = f
	p.page = 1
	return nil
}

// Replace swaps in a freshly fetched snapshot, keeping the filter and
// clamping the page.
func (p *Pager) Replace(entries []models.LogEntry) {
	p.entries = entries
	p.page = p.View().Page
}

// Next advances one page. It reports false, and does nothing, on the last page.
func (p *Pager) Next() bool {
	if !p.View().HasNext {
		return false
	}
	p.page++
	return true
}

// Prev goes back one page. It reports false, and does nothing, on page 1.
func (p *Pager) Prev() bool {
	if p.page <= 1 {
		return false
	}
	p.page--
	return true
}

func (p *Pager) Filter() string {
	return p.filter
}

// View returns the currently visible page.
func (p *Pager) View() models.LogPage {
	return Query(p.entries, p.filter, p.page, p.pageSize)
}

// Export snapshots the filtered entries for download.
func (p *Pager) Export(system string, at time.Time) models.LogExport {
	return Export(p.entries, p.filter, system, at)
}
