package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorLink      = lipgloss.Color("39")  // Blue
	colorUser      = lipgloss.Color("33")
	colorError     = lipgloss.Color("196")
)

// HeaderTitle is the app title in the top line.
var HeaderTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// HeaderSubtitle follows the title.
var HeaderSubtitle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// PaneBorder frames an unfocused timeline pane.
var PaneBorder = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// PaneBorderFocused frames the pane that receives link navigation keys.
var PaneBorderFocused = PaneBorder.
	BorderForeground(colorPrimary)

// PaneTitle is the first line inside a pane.
var PaneTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// RoleUser labels user messages.
var RoleUser = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorUser)

// RoleAssistant labels answers.
var RoleAssistant = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorSecondary)

// InspectHint marks answers that have results to inspect.
var InspectHint = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true)

// LinkStyle renders citation and external links.
var LinkStyle = lipgloss.NewStyle().
	Foreground(colorLink).
	Underline(true)

// LinkFocused renders the link selected with ctrl+n / ctrl+p.
var LinkFocused = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorLink).
	Bold(true)

// SourceDivider separates an answer body from its sources.
var SourceDivider = lipgloss.NewStyle().
	Foreground(colorMuted)

// SourceText is the muted, smaller-feeling source list.
var SourceText = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Faint(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)

// InputBox frames the message input.
var InputBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// InputBoxDisabled frames the input while a turn is in flight.
var InputBoxDisabled = InputBox.
	BorderForeground(colorMuted)

// ResultCard frames one result in the results-only view.
var ResultCard = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// ResultLabel is the "Result N" caption.
var ResultLabel = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ColumnHeader titles a results column.
var ColumnHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginBottom(1)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorHighlight).
	Padding(1, 2)

// DebugHeaderStyle titles debug sections.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
