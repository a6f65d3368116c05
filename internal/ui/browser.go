package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/thesavant42/wayback-tweets/internal/db"
	"github.com/thesavant42/wayback-tweets/internal/models"
	"github.com/thesavant42/wayback-tweets/internal/report"
)

// TweetBrowserModel is the TUI model for browsing cached archived tweets
type TweetBrowserModel struct {
	logger    *log.Logger
	database  *db.DB
	layout    Layout
	table     table.Model
	textInput textinput.Model
	outputDir string

	// State
	username     string
	records      []models.ArchivedTweet
	totalRecords int

	// View mode
	viewMode       browserViewMode
	inputMode      browserInputMode
	filterText     string
	filterMimeType string

	// Cached usernames
	users      []models.WaybackUserStats
	userCursor int

	// Pagination
	page     int
	pageSize int

	detailRecord *models.ArchivedTweet

	// UI state
	err       error
	statusMsg string
	quitting  bool
}

type browserViewMode int

const (
	browserViewUsers  browserViewMode = iota // Pick a cached username
	browserViewTable                         // Table of captures
	browserViewFilter                        // Filter input overlay
	browserViewDetail                        // Detail view for one capture
)

type browserInputMode int

const (
	browserInputFilter browserInputMode = iota
	browserInputMime
)

// Messages
type browserRecordsLoadedMsg struct {
	records []models.ArchivedTweet
	total   int
	err     error
}

type browserUsersLoadedMsg struct {
	users []models.WaybackUserStats
	err   error
}

// NewTweetBrowserModel creates a browser. With an empty username the
// browser opens on the list of cached accounts.
func NewTweetBrowserModel(logger *log.Logger, database *db.DB, username, outputDir string) TweetBrowserModel {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.TextStyle = NormalStyle
	ti.PromptStyle = NormalStyle

	layout := DefaultLayout()

	t := table.New(
		table.WithColumns(calculateTweetColumns(layout.TableWidth)),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(layout.TableHeight),
	)
	ApplyTableStyles(&t)

	mode := browserViewTable
	if username == "" {
		mode = browserViewUsers
	}

	return TweetBrowserModel{
		logger:    logger,
		database:  database,
		layout:    layout,
		table:     t,
		textInput: ti,
		outputDir: outputDir,
		username:  username,
		viewMode:  mode,
		page:      1,
		pageSize:  100,
	}
}

// Init implements tea.Model
func (m TweetBrowserModel) Init() tea.Cmd {
	if m.viewMode == browserViewUsers {
		return m.loadCachedUsers()
	}
	return m.loadRecordsFromDB()
}

// Update implements tea.Model
func (m TweetBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = NewLayout(msg.Width, msg.Height)
		m.table.SetHeight(m.layout.TableHeight)
		m.textInput.Width = m.layout.InnerWidth - 10
		m.updateTable()
		return m, nil

	case browserRecordsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.records = msg.records
		m.totalRecords = msg.total
		m.viewMode = browserViewTable
		m.updateTable()
		return m, nil

	case browserUsersLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.users = msg.users
		if m.userCursor >= len(m.users) {
			m.userCursor = 0
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m TweetBrowserModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case browserViewUsers:
		return m.handleUsersKeys(msg)
	case browserViewTable:
		return m.handleTableKeys(msg)
	case browserViewFilter:
		return m.handleFilterKeys(msg)
	case browserViewDetail:
		return m.handleDetailKeys(msg)
	default:
		return m, nil
	}
}

func (m TweetBrowserModel) handleUsersKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.userCursor > 0 {
			m.userCursor--
		}

	case "down", "j":
		if m.userCursor < len(m.users)-1 {
			m.userCursor++
		}

	case "enter":
		if m.userCursor < len(m.users) {
			m.username = m.users[m.userCursor].Username
			m.page = 1
			m.filterText = ""
			m.filterMimeType = ""
			return m, m.loadRecordsFromDB()
		}
	}
	return m, nil
}

func (m TweetBrowserModel) handleTableKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "esc", "u":
		m.viewMode = browserViewUsers
		return m, m.loadCachedUsers()

	case "up", "k":
		m.table.MoveUp(1)

	case "down", "j":
		m.table.MoveDown(1)

	case "enter":
		if r, ok := m.selected(); ok {
			m.openInBrowser(r.ParsedArchivedTweetURL, "Opened archived tweet")
		}

	case "o":
		if r, ok := m.selected(); ok {
			m.openInBrowser(r.ParsedTweetURL, "Opened tweet URL")
		}

	case "v":
		if r, ok := m.selected(); ok {
			m.detailRecord = &r
			m.viewMode = browserViewDetail
		}

	case "/":
		m.viewMode = browserViewFilter
		m.inputMode = browserInputFilter
		m.textInput.SetValue(m.filterText)
		m.textInput.Placeholder = "Filter by URL or recovered text..."
		m.textInput.Focus()
		return m, textinput.Blink

	case "m":
		m.viewMode = browserViewFilter
		m.inputMode = browserInputMime
		m.textInput.SetValue(m.filterMimeType)
		m.textInput.Placeholder = "Filter by MIME type (e.g., json, text/html)..."
		m.textInput.Focus()
		return m, textinput.Blink

	case "c":
		m.filterText = ""
		m.filterMimeType = ""
		m.page = 1
		m.statusMsg = "Filters cleared"
		return m, m.loadRecordsFromDB()

	case "e":
		m.exportReport()

	case "D":
		if m.database != nil && m.username != "" {
			if err := m.database.DeleteArchivedTweets(m.username); err != nil {
				m.statusMsg = fmt.Sprintf("Delete error: %v", err)
				return m, nil
			}
			m.statusMsg = fmt.Sprintf("Deleted cached captures for @%s", m.username)
			m.records = nil
			m.totalRecords = 0
			m.updateTable()
			m.viewMode = browserViewUsers
			return m, m.loadCachedUsers()
		}

	case "n", "right":
		if m.page < m.maxPage() {
			m.page++
			return m, m.loadRecordsFromDB()
		}

	case "p", "left":
		if m.page > 1 {
			m.page--
			return m, m.loadRecordsFromDB()
		}
	}
	return m, nil
}

func (m TweetBrowserModel) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		switch m.inputMode {
		case browserInputFilter:
			m.filterText = strings.TrimSpace(m.textInput.Value())
		case browserInputMime:
			m.filterMimeType = strings.TrimSpace(m.textInput.Value())
		}
		m.page = 1
		m.viewMode = browserViewTable
		m.textInput.Blur()
		return m, m.loadRecordsFromDB()

	case "esc":
		m.viewMode = browserViewTable
		m.textInput.Blur()
		return m, nil

	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
}

func (m TweetBrowserModel) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "v", "q":
		m.detailRecord = nil
		m.viewMode = browserViewTable

	case "enter":
		if m.detailRecord != nil {
			m.openInBrowser(m.detailRecord.ParsedArchivedTweetURL, "Opened archived tweet")
		}

	case "o":
		if m.detailRecord != nil {
			m.openInBrowser(m.detailRecord.ParsedTweetURL, "Opened tweet URL")
		}
	}
	return m, nil
}

// selected returns the record under the table cursor
func (m TweetBrowserModel) selected() (models.ArchivedTweet, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.records) {
		return models.ArchivedTweet{}, false
	}
	return m.records[cursor], true
}

func (m *TweetBrowserModel) openInBrowser(url, status string) {
	if err := openURL(url); err != nil {
		m.statusMsg = fmt.Sprintf("Open error: %v", err)
		return
	}
	m.statusMsg = status
}

// exportReport writes the visible page as an HTML report
func (m *TweetBrowserModel) exportReport() {
	if len(m.records) == 0 {
		m.statusMsg = "Nothing to export"
		return
	}
	document, err := report.Render(m.records, m.username)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Export error: %v", err)
		return
	}
	path := filepath.Join(m.outputDir, fmt.Sprintf("%s_tweets.html", m.username))
	if err := report.Save(document, path); err != nil {
		m.statusMsg = fmt.Sprintf("Export error: %v", err)
		return
	}
	if m.logger != nil {
		m.logger.Debug("exported report", "path", path, "records", len(m.records))
	}
	m.statusMsg = fmt.Sprintf("Exported to %s", path)
}

func (m TweetBrowserModel) maxPage() int {
	maxPage := (m.totalRecords + m.pageSize - 1) / m.pageSize
	if maxPage < 1 {
		maxPage = 1
	}
	return maxPage
}

// View implements tea.Model
func (m TweetBrowserModel) View() string {
	if m.quitting {
		return ""
	}

	var content strings.Builder

	content.WriteString(ViewHeader("Wayback Tweets Browser", m.layout.InnerWidth))

	switch m.viewMode {
	case browserViewUsers:
		content.WriteString(m.renderUsersView())
	case browserViewTable:
		content.WriteString(m.renderTableView())
	case browserViewFilter:
		content.WriteString(m.renderTableView())
		content.WriteString("\n\n")
		content.WriteString(AccentStyle.Render(" Filter: "))
		content.WriteString(m.textInput.View())
	case browserViewDetail:
		content.WriteString(m.renderDetailView())
	}

	if m.statusMsg != "" {
		content.WriteString("\n")
		content.WriteString(HintStyle.Render(m.statusMsg))
	}

	if m.err != nil {
		content.WriteString("\n")
		content.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	availableHeight := m.layout.ViewportHeight - 4
	if availableHeight < 10 {
		availableHeight = 10
	}

	bordered := BorderStyle.
		Width(m.layout.InnerWidth).
		Height(availableHeight).
		Render(content.String())

	return "\n" + bordered + "\n " + m.helpText()
}

func (m TweetBrowserModel) renderUsersView() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(" Cached Accounts"))
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		b.WriteString(DimStyle.Render(" No cached accounts. Run `waybacktweets fetch <username>` first."))
		return b.String()
	}

	selectedStyle := SelectedStyle.Width(m.layout.InnerWidth)
	normalStyle := NormalStyle.Width(m.layout.InnerWidth)

	for i, u := range m.users {
		line := fmt.Sprintf("@%s (%s captures)", u.Username, humanize.Comma(int64(u.RecordCount)))
		if !u.FetchedAt.IsZero() {
			line += ", fetched " + humanize.Time(u.FetchedAt)
		}
		if i == m.userCursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(normalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m TweetBrowserModel) renderTableView() string {
	info := fmt.Sprintf(" @%s", m.username)
	if m.filterText != "" || m.filterMimeType != "" {
		info += "  |  Filters:"
		if m.filterText != "" {
			info += fmt.Sprintf(" TEXT~'%s'", m.filterText)
		}
		if m.filterMimeType != "" {
			info += fmt.Sprintf(" MIME~'%s'", m.filterMimeType)
		}
	}
	info += fmt.Sprintf("  |  Page %d/%d  |  Total: %s", m.page, m.maxPage(), humanize.Comma(int64(m.totalRecords)))

	return AccentStyle.Render(info) + "\n\n" + RenderTableWithSelection(m.table, m.layout)
}

func (m TweetBrowserModel) renderDetailView() string {
	if m.detailRecord == nil {
		return DimStyle.Render("No record selected")
	}

	r := m.detailRecord
	wrapWidth := m.layout.InnerWidth - 6
	if wrapWidth < 40 {
		wrapWidth = 40
	}

	var b strings.Builder
	b.WriteString(ViewHeader(" Capture Details", m.layout.InnerWidth-2))

	for _, f := range detailFields(*r) {
		b.WriteString(DimStyle.Render(" " + f.Label + ":"))
		b.WriteString("\n")
		value := f.Value
		if value == "" {
			value = "N/A"
		}
		for _, line := range strings.Split(wrapText(value, wrapWidth), "\n") {
			b.WriteString("   ")
			b.WriteString(NormalStyle.Render(line))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// detailFields lists what the detail view shows for a capture
func detailFields(r models.ArchivedTweet) []report.Field {
	fields := []report.Field{
		{Label: "Parsed Tweet", Value: r.ParsedTweetURL},
		{Label: "Parsed Archived Tweet", Value: r.ParsedArchivedTweetURL},
		{Label: "Captured", Value: formatWaybackTimestamp(r.ArchivedTimestamp)},
		{Label: "Status", Value: r.ArchivedStatusCode.String()},
		{Label: "MIME Type", Value: r.ArchivedMimeType},
		{Label: "Length", Value: formatLength(r.ArchivedLength)},
		{Label: "Digest", Value: r.ArchivedDigest},
	}
	if r.HasAvailableText() {
		fields = append(fields, report.Field{Label: "Recovered Text", Value: r.AvailableTweetText.String()})
	}
	return fields
}

func (m TweetBrowserModel) helpText() string {
	switch m.viewMode {
	case browserViewUsers:
		return HintStyle.Render("Enter: select | up/down: navigate | q: quit")
	case browserViewTable:
		return HintStyle.Render("Enter: open archive | o: open tweet | v: details | /: filter | m: MIME | c: clear | e: export | D: delete | n/p: page | Esc: accounts")
	case browserViewFilter:
		return HintStyle.Render("Enter: apply filter | Esc: cancel")
	case browserViewDetail:
		return HintStyle.Render("Enter: open archive | o: open tweet | Esc: close")
	default:
		return ""
	}
}

// wrapText wraps text to fit within a given width
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= width {
			result.WriteString(remaining)
			break
		}

		// Prefer breaking after URL separators
		breakPoint := width
		for i := width; i > width/2; i-- {
			c := remaining[i-1]
			if c == '/' || c == '?' || c == '&' || c == '=' || c == '-' || c == '_' || c == ' ' {
				breakPoint = i
				break
			}
		}

		result.WriteString(remaining[:breakPoint])
		result.WriteString("\n")
		remaining = remaining[breakPoint:]
	}

	return result.String()
}

// formatWaybackTimestamp converts a 14-digit Wayback timestamp to human-readable format
// Input: YYYYMMDDhhmmss (e.g., "20231015143022")
// Output: "2023-10-15 14:30:22"
func formatWaybackTimestamp(ts string) string {
	if len(ts) < 14 {
		return ts
	}
	return fmt.Sprintf("%s-%s-%s %s:%s:%s",
		ts[0:4], ts[4:6], ts[6:8], ts[8:10], ts[10:12], ts[12:14])
}

// formatLength renders a capture length in bytes, falling back to the raw value
func formatLength(length models.FlexString) string {
	var n uint64
	if _, err := fmt.Sscanf(length.String(), "%d", &n); err != nil {
		if length == "" {
			return "-"
		}
		return length.String()
	}
	return humanize.Bytes(n)
}

// Commands

func (m TweetBrowserModel) loadRecordsFromDB() tea.Cmd {
	return func() tea.Msg {
		if m.database == nil {
			return browserRecordsLoadedMsg{err: fmt.Errorf("no database")}
		}
		filter := models.TweetFilter{
			Username:   m.username,
			MimeType:   m.filterMimeType,
			SearchText: m.filterText,
			Limit:      m.pageSize,
			Offset:     (m.page - 1) * m.pageSize,
		}
		records, total, err := m.database.GetArchivedTweetsFiltered(filter)
		return browserRecordsLoadedMsg{records: records, total: total, err: err}
	}
}

func (m TweetBrowserModel) loadCachedUsers() tea.Cmd {
	return func() tea.Msg {
		if m.database == nil {
			return browserUsersLoadedMsg{err: fmt.Errorf("no database")}
		}
		users, err := m.database.GetCachedUsernames()
		return browserUsersLoadedMsg{users: users, err: err}
	}
}

func (m *TweetBrowserModel) updateTable() {
	columns := calculateTweetColumns(m.layout.TableWidth)
	m.table.SetColumns(columns)
	m.table.SetRows(tweetRows(m.records, columns))
}

// tweetRows builds table rows sized to the given columns
func tweetRows(records []models.ArchivedTweet, columns []table.Column) []table.Row {
	truncate := func(s string, w int) string {
		if len(s) <= w {
			return s
		}
		if w <= 3 {
			return s[:w]
		}
		return s[:w-3] + "..."
	}

	rows := make([]table.Row, len(records))
	for i, r := range records {
		status := r.ArchivedStatusCode.String()
		if status == "" {
			status = "-"
		}
		text := "-"
		if r.HasAvailableText() {
			text = "yes"
		}
		rows[i] = table.Row{
			truncate(r.ParsedTweetURL, columns[0].Width),
			truncate(formatWaybackTimestamp(r.ArchivedTimestamp), columns[1].Width),
			truncate(status, columns[2].Width),
			truncate(r.ArchivedMimeType, columns[3].Width),
			truncate(formatLength(r.ArchivedLength), columns[4].Width),
			truncate(text, columns[5].Width),
		}
	}
	return rows
}

func calculateTweetColumns(totalW int) []table.Column {
	if totalW < 80 {
		totalW = 80
	}

	tsW := 20
	statusW := 8
	mimeW := 18
	lengthW := 10
	textW := 6

	urlW := totalW - (tsW + statusW + mimeW + lengthW + textW)
	if urlW < 30 {
		urlW = 30
	}

	return []table.Column{
		{Title: "Tweet", Width: urlW},
		{Title: "Captured", Width: tsW},
		{Title: "Status", Width: statusW},
		{Title: "MIME Type", Width: mimeW},
		{Title: "Length", Width: lengthW},
		{Title: "Text", Width: textW},
	}
}

// RunTweetBrowser starts the cached tweet browser TUI
func RunTweetBrowser(logger *log.Logger, database *db.DB, username, outputDir string) error {
	model := NewTweetBrowserModel(logger, database, username, outputDir)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
