package report

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/ocrbridge/internal/model"
)

const (
	// SummaryMarker starts the line holding the aggregate statistics.
	SummaryMarker = "Got mean normalized label error rate of "
	headerMarker  = "GT"
	detailMarker  = "{"

	// NoSummaryMessage is reported when no summary line was found.
	NoSummaryMessage = "no summary available"
)

var (
	summaryPattern = regexp.MustCompile(`([0-9]*\.?[0-9]*)%\D+(\d+)\D+(\d+)\D+(\d+)`)
	detailPattern  = regexp.MustCompile(`\{([^}]*)\}\s+\{([^}]*)\}\s+(\d+)\s+([0-9]*\.?[0-9]*)%`)
	lineBreaks     = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

type state int

const (
	stateSummary state = iota
	stateHeader
	stateDetail
	stateReady
)

// Parse reads an evaluation report. stderr is carried through untouched.
func Parse(stdout, stderr string) model.EvaluationMeasure {
	if strings.TrimSpace(stdout) == "" {
		return noSummary(stdout, stderr)
	}

	var (
		measure  *model.EvaluationMeasure
		problems []string
		current  = stateSummary
	)

	for _, line := range splitLines(stdout) {
		switch current {
		case stateSummary:
			if !strings.HasPrefix(line, SummaryMarker) {
				continue
			}
			summary, ok := parseSummary(line)
			if !ok {
				return model.EvaluationMeasure{
					State:   model.MeasureStateInconsistent,
					Message: "parser error (summary): " + line,
					Stdout:  stdout,
					Stderr:  stderr,
					Details: []model.Detail{},
				}
			}
			measure = &model.EvaluationMeasure{
				State:   model.MeasureStateCompleted,
				Stdout:  stdout,
				Stderr:  stderr,
				Summary: summary,
				Details: []model.Detail{},
			}
			current = stateHeader

		case stateHeader:
			if strings.HasPrefix(line, headerMarker) {
				current = stateDetail
			}

		case stateDetail:
			if !strings.HasPrefix(line, detailMarker) {
				current = stateReady
				break
			}
			detail, ok := parseDetail(line)
			if !ok {
				problems = append(problems, "parser error (detail): "+line)
				continue
			}
			measure.Details = append(measure.Details, detail)
		}

		if current == stateReady {
			break
		}
	}

	if measure == nil {
		return noSummary(stdout, stderr)
	}
	if len(problems) > 0 {
		measure.State = model.MeasureStateInconsistent
		measure.Message = strings.Join(problems, "\n")
	}
	return *measure
}

// Interrupted builds the measure for an evaluation whose engine could not be
// started or did not finish successfully.
func Interrupted(message, stdout, stderr string) model.EvaluationMeasure {
	return model.EvaluationMeasure{
		State:   model.MeasureStateInterrupted,
		Message: message,
		Stdout:  stdout,
		Stderr:  stderr,
		Details: []model.Detail{},
	}
}

func noSummary(stdout, stderr string) model.EvaluationMeasure {
	return model.EvaluationMeasure{
		State:   model.MeasureStateInconsistent,
		Message: NoSummaryMessage,
		Stdout:  stdout,
		Stderr:  stderr,
		Details: []model.Detail{},
	}
}

// splitLines accepts \n, \r\n and \r. A trailing terminator does not produce
// an extra empty line.
func splitLines(text string) []string {
	text = lineBreaks.Replace(text)
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func parseSummary(line string) (*model.Summary, bool) {
	m := summaryPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	rate, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, false
	}
	counts, ok := parseCounts(m[2], m[3], m[4])
	if !ok {
		return nil, false
	}
	return &model.Summary{
		ErrorRatePercent: rate,
		TotalErrors:      counts[0],
		TotalCount:       counts[1],
		TotalLabels:      counts[2],
	}, true
}

func parseDetail(line string) (model.Detail, bool) {
	m := detailPattern.FindStringSubmatch(line)
	if m == nil {
		return model.Detail{}, false
	}
	counts, ok := parseCounts(m[3])
	if !ok {
		return model.Detail{}, false
	}
	percent, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return model.Detail{}, false
	}
	return model.Detail{
		GroundTruth: m[1],
		Predicted:   m[2],
		Count:       counts[0],
		Percent:     percent,
	}, true
}

// parseCounts converts decimal digit strings; overflow counts as a mismatch.
func parseCounts(raw ...string) ([]int, bool) {
	counts := make([]int, len(raw))
	for i, r := range raw {
		n, err := strconv.Atoi(r)
		if err != nil || n < 0 {
			return nil, false
		}
		counts[i] = n
	}
	return counts, true
}
