package forks

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/temirov/forker/internal/storage"
	"github.com/temirov/forker/internal/ui"
)

const (
	ruleCharacterConstant               = "-"
	ruleWidthConstant                   = 80
	jsonIndentConstant                  = "  "
	yamlIndentConstant                  = 2
	unsupportedOutputFormatTemplate     = "unsupported output format: %s"
	noForksForAccountTemplateConstant   = "No forks found for account: %s"
	forksForAccountHeadingTemplate      = "Forks for %s:"
	forkSuccessHeadingConstant          = "Successfully forked repository!"
	noTrackedForksStatusMessageConstant = "No tracked forks found in .forker directory"
	noTrackedForksMessageConstant       = "No tracked forks found"
	statusHeadingConstant               = "Fork Status:"
	peersHeadingConstant                = "Peer Forks:"
	pullRequestsHeadingConstant         = "Pull Requests:"
	activeHeadingConstant               = "Most Active Forks:"
	noOtherForksMessageConstant         = "No other forks found"
	noOpenPullRequestsMessageConstant   = "No open pull requests"
	otherForksTemplateConstant          = "Other forks (%d):"
	openPullRequestsTemplateConstant    = "Open PRs (%d):"
	peerEntryTemplateConstant           = "    - %s/%s (updated: %s)"
	pullRequestEntryTemplateConstant    = "    #%d: %s"
	pullRequestDetailTemplateConstant   = "      Author: %s | State: %s | Created: %s"
	peerSubjectTemplateConstant         = "%s (%s)"
	activeSubjectTemplateConstant       = "%d. %s"
	totalForksTemplateConstant          = "Total forks: %d"
	totalTrackedForksTemplateConstant   = "Total tracked forks: %d"
	fieldIndentConstant                 = "  "
	activeFieldIndentConstant           = "   "
	urlLabelConstant                    = "URL:"
	rootLabelConstant                   = "Root:"
	descriptionLabelConstant            = "Description:"
	updatedLabelConstant                = "Updated:"
	originalLabelConstant               = "Original:"
	forkLabelConstant                   = "Fork:"
	commitsAheadLabelConstant           = "Commits ahead:"
	commitsBehindLabelConstant          = "Commits behind:"
	lastUpdatedLabelConstant            = "Last updated:"
	lastActivityLabelConstant           = "Last activity:"
	labeledFieldTemplateConstant        = "%s%s %s"
)

// OutputFormat selects the rendering of command results.
type OutputFormat string

// Supported output formats.
const (
	OutputFormatText OutputFormat = OutputFormat("text")
	OutputFormatJSON OutputFormat = OutputFormat("json")
	OutputFormatYAML OutputFormat = OutputFormat("yaml")
)

// OutputFormats lists every supported output format.
func OutputFormats() []string {
	return []string{string(OutputFormatText), string(OutputFormatJSON), string(OutputFormatYAML)}
}

// ParseOutputFormat normalizes raw into a supported OutputFormat.
func ParseOutputFormat(raw string) (OutputFormat, error) {
	normalized := OutputFormat(strings.ToLower(strings.TrimSpace(raw)))
	switch normalized {
	case "":
		return OutputFormatText, nil
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedOutputFormatTemplate, raw)
	}
}

type forkListDocument struct {
	Account string             `json:"account" yaml:"account"`
	Forks   []storage.ForkInfo `json:"forks" yaml:"forks"`
}

// Reporter renders command results to a writer in the selected format.
type Reporter struct {
	writer  io.Writer
	format  OutputFormat
	palette ui.Palette
}

// NewReporter constructs a Reporter. Colors apply to text output only.
func NewReporter(writer io.Writer, format OutputFormat, colorEnabled bool) (*Reporter, error) {
	parsedFormat, parseError := ParseOutputFormat(string(format))
	if parseError != nil {
		return nil, parseError
	}
	if writer == nil {
		writer = io.Discard
	}
	return &Reporter{writer: writer, format: parsedFormat, palette: ui.NewPalette(writer, colorEnabled && parsedFormat == OutputFormatText)}, nil
}

// RenderForkList reports the forks owned by account.
func (reporter *Reporter) RenderForkList(account string, forkInfos []storage.ForkInfo) error {
	if reporter.format != OutputFormatText {
		return reporter.encode(forkListDocument{Account: account, Forks: nonNilSlice(forkInfos)})
	}

	lines := newReportLines(reporter.palette)
	if len(forkInfos) == 0 {
		lines.plain(fmt.Sprintf(noForksForAccountTemplateConstant, account))
		return lines.writeTo(reporter.writer)
	}

	lines.heading(fmt.Sprintf(forksForAccountHeadingTemplate, account))
	for _, forkInfo := range forkInfos {
		lines.subject(forkInfo.Name)
		lines.field(fieldIndentConstant, urlLabelConstant, forkInfo.ResolvedForkURL())
		lines.optionalField(fieldIndentConstant, rootLabelConstant, forkInfo.RootRepositoryURL())
		lines.optionalField(fieldIndentConstant, descriptionLabelConstant, forkInfo.DescriptionText())
		lines.field(fieldIndentConstant, updatedLabelConstant, forkInfo.UpdatedAt)
	}
	lines.total(fmt.Sprintf(totalForksTemplateConstant, len(forkInfos)))
	return lines.writeTo(reporter.writer)
}

// RenderForkResult reports a newly created fork.
func (reporter *Reporter) RenderForkResult(forkInfo storage.ForkInfo) error {
	if reporter.format != OutputFormatText {
		return reporter.encode(forkInfo)
	}

	lines := newReportLines(reporter.palette)
	lines.blank()
	lines.styled(reporter.palette.Heading, forkSuccessHeadingConstant)
	lines.field(fieldIndentConstant, originalLabelConstant, forkInfo.OriginalURL)
	lines.field(fieldIndentConstant, forkLabelConstant, forkInfo.ResolvedForkURL())
	lines.optionalField(fieldIndentConstant, rootLabelConstant, forkInfo.RootRepositoryURL())
	return lines.writeTo(reporter.writer)
}

// RenderStatuses reports the status of every tracked fork.
func (reporter *Reporter) RenderStatuses(statuses []ForkStatus) error {
	if reporter.format != OutputFormatText {
		return reporter.encode(nonNilSlice(statuses))
	}

	lines := newReportLines(reporter.palette)
	if len(statuses) == 0 {
		lines.plain(noTrackedForksStatusMessageConstant)
		return lines.writeTo(reporter.writer)
	}

	lines.heading(statusHeadingConstant)
	for _, status := range statuses {
		lines.subject(status.Name)
		lines.field(fieldIndentConstant, forkLabelConstant, status.ForkURL)
		lines.optionalField(fieldIndentConstant, rootLabelConstant, status.RootURL)
		if status.AheadBy != nil {
			lines.field(fieldIndentConstant, commitsAheadLabelConstant, fmt.Sprint(*status.AheadBy))
		}
		if status.BehindBy != nil {
			lines.field(fieldIndentConstant, commitsBehindLabelConstant, fmt.Sprint(*status.BehindBy))
		}
		lines.field(fieldIndentConstant, lastUpdatedLabelConstant, status.UpdatedAt)
	}
	lines.total(fmt.Sprintf(totalTrackedForksTemplateConstant, len(statuses)))
	return lines.writeTo(reporter.writer)
}

// RenderPeers reports the peer forks of every tracked fork.
func (reporter *Reporter) RenderPeers(reports []PeerReport) error {
	if reporter.format != OutputFormatText {
		return reporter.encode(nonNilSlice(reports))
	}

	lines := newReportLines(reporter.palette)
	if len(reports) == 0 {
		lines.plain(noTrackedForksMessageConstant)
		return lines.writeTo(reporter.writer)
	}

	lines.heading(peersHeadingConstant)
	for _, report := range reports {
		lines.subject(fmt.Sprintf(peerSubjectTemplateConstant, report.Name, report.RootURL))
		if len(report.Peers) == 0 {
			lines.plain(fieldIndentConstant + noOtherForksMessageConstant)
			continue
		}
		lines.plain(fieldIndentConstant + fmt.Sprintf(otherForksTemplateConstant, len(report.Peers)))
		for _, peer := range report.Peers {
			lines.plain(fmt.Sprintf(peerEntryTemplateConstant, peer.Owner, peer.Name, peer.UpdatedAt))
		}
	}
	return lines.writeTo(reporter.writer)
}

// RenderPullRequests reports the pull requests gathered for every tracked fork.
func (reporter *Reporter) RenderPullRequests(reports []PullRequestReport) error {
	if reporter.format != OutputFormatText {
		return reporter.encode(nonNilSlice(reports))
	}

	lines := newReportLines(reporter.palette)
	if len(reports) == 0 {
		lines.plain(noTrackedForksMessageConstant)
		return lines.writeTo(reporter.writer)
	}

	lines.heading(pullRequestsHeadingConstant)
	for _, report := range reports {
		lines.subject(report.Name)
		if len(report.PullRequests) == 0 {
			lines.plain(fieldIndentConstant + noOpenPullRequestsMessageConstant)
			continue
		}
		lines.plain(fieldIndentConstant + fmt.Sprintf(openPullRequestsTemplateConstant, len(report.PullRequests)))
		for _, pullRequest := range report.PullRequests {
			lines.plain(fmt.Sprintf(pullRequestEntryTemplateConstant, pullRequest.Number, pullRequest.Title))
			lines.plain(fmt.Sprintf(pullRequestDetailTemplateConstant, pullRequest.Author, pullRequest.State, pullRequest.CreatedAt))
		}
	}
	return lines.writeTo(reporter.writer)
}

// RenderActiveForks reports the most-active ranking.
func (reporter *Reporter) RenderActiveForks(activeForks []ActiveFork) error {
	if reporter.format != OutputFormatText {
		return reporter.encode(nonNilSlice(activeForks))
	}

	lines := newReportLines(reporter.palette)
	if len(activeForks) == 0 {
		lines.plain(noTrackedForksMessageConstant)
		return lines.writeTo(reporter.writer)
	}

	lines.heading(activeHeadingConstant)
	for index, activeFork := range activeForks {
		lines.subject(fmt.Sprintf(activeSubjectTemplateConstant, index+1, activeFork.Name))
		lines.field(activeFieldIndentConstant, urlLabelConstant, activeFork.URL)
		if activeFork.RootURL != nil {
			lines.optionalField(activeFieldIndentConstant, rootLabelConstant, *activeFork.RootURL)
		}
		lines.field(activeFieldIndentConstant, lastActivityLabelConstant, activeFork.UpdatedAt)
	}
	return lines.writeTo(reporter.writer)
}

func (reporter *Reporter) encode(document any) error {
	switch reporter.format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(reporter.writer)
		encoder.SetIndent("", jsonIndentConstant)
		return encoder.Encode(document)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(reporter.writer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(document); encodeError != nil {
			return encodeError
		}
		return encoder.Close()
	default:
		return fmt.Errorf(unsupportedOutputFormatTemplate, reporter.format)
	}
}

func nonNilSlice[Element any](elements []Element) []Element {
	if elements == nil {
		return []Element{}
	}
	return elements
}

type reportLines struct {
	palette ui.Palette
	builder strings.Builder
}

func newReportLines(palette ui.Palette) *reportLines {
	return &reportLines{palette: palette}
}

func (lines *reportLines) blank() {
	lines.builder.WriteString("\n")
}

func (lines *reportLines) plain(text string) {
	lines.builder.WriteString(text)
	lines.builder.WriteString("\n")
}

func (lines *reportLines) styled(style lipgloss.Style, text string) {
	lines.plain(style.Render(text))
}

// heading writes a blank line, the heading and the horizontal rule.
func (lines *reportLines) heading(text string) {
	lines.blank()
	lines.styled(lines.palette.Heading, text)
	lines.styled(lines.palette.Rule, strings.Repeat(ruleCharacterConstant, ruleWidthConstant))
}

func (lines *reportLines) subject(text string) {
	lines.blank()
	lines.styled(lines.palette.Subject, text)
}

func (lines *reportLines) field(indent string, label string, value string) {
	lines.plain(fmt.Sprintf(labeledFieldTemplateConstant, indent, lines.palette.Label.Render(label), value))
}

func (lines *reportLines) optionalField(indent string, label string, value string) {
	if len(value) == 0 {
		return
	}
	lines.field(indent, label, value)
}

func (lines *reportLines) total(text string) {
	lines.blank()
	lines.plain(text)
}

func (lines *reportLines) writeTo(writer io.Writer) error {
	_, writeError := io.WriteString(writer, lines.builder.String())
	return writeError
}
