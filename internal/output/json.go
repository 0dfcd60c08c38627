package output

import (
	"encoding/json"

	"derivecore/internal/dictdiff"
	"derivecore/internal/dictionary"
)

type jsonFormatter struct{}

type diffSummary struct {
	AddedAttributes    int `json:"addedAttributes"`
	RemovedAttributes  int `json:"removedAttributes"`
	RenamedAttributes  int `json:"renamedAttributes"`
	ModifiedAttributes int `json:"modifiedAttributes"`
	AddedBlocks        int `json:"addedBlocks"`
	RemovedBlocks      int `json:"removedBlocks"`
	ModifiedBlocks     int `json:"modifiedBlocks"`
}

type diffPayload struct {
	Format             string                       `json:"format"`
	Summary            diffSummary                  `json:"summary"`
	AddedAttributes    []*dictionary.Attribute       `json:"addedAttributes,omitempty"`
	RemovedAttributes  []*dictionary.Attribute       `json:"removedAttributes,omitempty"`
	RenamedAttributes  []*dictdiff.AttributeRename   `json:"renamedAttributes,omitempty"`
	ModifiedAttributes []*dictdiff.AttributeChange   `json:"modifiedAttributes,omitempty"`
	AddedBlocks        []*dictionary.AttributeBlock  `json:"addedBlocks,omitempty"`
	RemovedBlocks      []*dictionary.AttributeBlock  `json:"removedBlocks,omitempty"`
	ModifiedBlocks     []*dictdiff.BlockChange       `json:"modifiedBlocks,omitempty"`
	BreakingChanges    []dictdiff.BreakingChange     `json:"breakingChanges,omitempty"`
}

type compileReportPayload struct {
	Format string             `json:"format"`
	Report *dictionary.Report `json:"report"`
}

type Payload interface {
	diffPayload | compileReportPayload
}

func (jsonFormatter) FormatDiff(d *dictdiff.DictionaryDiff) (string, error) {
	payload := diffPayload{Format: string(FormatJSON)}
	if d != nil {
		payload.AddedAttributes = d.AddedAttributes
		payload.RemovedAttributes = d.RemovedAttributes
		payload.RenamedAttributes = d.RenamedAttributes
		payload.ModifiedAttributes = d.ModifiedAttributes
		payload.AddedBlocks = d.AddedBlocks
		payload.RemovedBlocks = d.RemovedBlocks
		payload.ModifiedBlocks = d.ModifiedBlocks
		payload.BreakingChanges = dictdiff.NewBreakingChangeAnalyzer().Analyze(d)
		payload.Summary = diffSummary{
			AddedAttributes:    len(d.AddedAttributes),
			RemovedAttributes:  len(d.RemovedAttributes),
			RenamedAttributes:  len(d.RenamedAttributes),
			ModifiedAttributes: len(d.ModifiedAttributes),
			AddedBlocks:        len(d.AddedBlocks),
			RemovedBlocks:      len(d.RemovedBlocks),
			ModifiedBlocks:     len(d.ModifiedBlocks),
		}
	}
	return marshalJSON(payload)
}

func (jsonFormatter) FormatCompileReport(r *dictionary.Report) (string, error) {
	return marshalJSON(compileReportPayload{Format: string(FormatJSON), Report: r})
}

func marshalJSON[T Payload](payload T) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
