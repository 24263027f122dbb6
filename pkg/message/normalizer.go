// Package message turns stored conversation records into the uniform UIMessage model.
// Parsing is total: every kind, known or not, yields a message and nothing here returns an error.
package message

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	noDatasetNamesText   = "Given your question, some datasets might be useful, but no names were found."
	singleDatasetText    = "Given your question, the following dataset might be useful: %s"
	multipleDatasetsText = "Given your question, the following datasets might be useful:"

	tableResultsText     = "Table Results:\n"
	dataAnalysisDoneText = "Data analysis completed."
	analysisDoneText     = "Analysis completed."
)

// Parse normalizes one stored message. index is its position in the listing and
// becomes the id when the record has no string id.
func Parse(raw RawConversationMessage, index int) UIMessage {
	msg := UIMessage{
		Id:        resolveID(raw.Id, index),
		Timestamp: raw.CreatedAt,
	}

	switch p := DecodePayload(raw.Kind, raw.Data.Payload).(type) {
	case LegacyUserPayload:
		msg.Type = TypeUser
		msg.Content = p.Query

	case LegacyAIPayload:
		msg.Type = TypeAI
		if p.IsList {
			msg.Content = datasetSuggestionText(p.Names)
		} else {
			msg.Content = p.Text
		}
		msg.RelatedDatasetIds = p.DatasetIds
		if msg.RelatedDatasetIds == nil {
			msg.RelatedDatasetIds = []string{}
		}
		sources := len(msg.RelatedDatasetIds)
		msg.Sources = &sources

	case UserPayload:
		msg.Type = TypeUser
		msg.Content = p.Question
		msg.DatasetIds = p.DatasetIds

	case AIPayload:
		msg.Type = TypeAI
		msg.Latitude = p.Latitude
		msg.Longitude = p.Longitude
		// AI results are not tied back to datasets yet.
		msg.RelatedDatasetIds = []string{}
		switch {
		case p.Table == nil:
			msg.Content = analysisDoneText
		case p.TableComplete:
			msg.TableData = p.Table
			msg.Content = tableResultsText
		default:
			msg.TableData = p.Table
			msg.Content = dataAnalysisDoneText
		}

	case UnknownPayload:
		msg.Type = typeForKind(p.Kind)
	}

	return msg
}

// ParseAll normalizes a listing in order.
func ParseAll(raws []RawConversationMessage) []UIMessage {
	out := make([]UIMessage, 0, len(raws))
	for i, raw := range raws {
		out = append(out, Parse(raw, i))
	}
	return out
}

func datasetSuggestionText(names []string) string {
	switch len(names) {
	case 0:
		return noDatasetNamesText
	case 1:
		return fmt.Sprintf(singleDatasetText, names[0])
	}

	lines := make([]string, 0, len(names)+2)
	lines = append(lines, multipleDatasetsText, "")
	for _, name := range names {
		lines = append(lines, "• "+name)
	}
	return strings.Join(lines, "\n")
}

// typeForKind is the fallback for kinds added after this build: even kinds are user turns.
func typeForKind(k Kind) string {
	if k%2 == 0 {
		return TypeUser
	}
	return TypeAI
}

func resolveID(id any, index int) string {
	if s, ok := id.(string); ok {
		return s
	}
	return strconv.Itoa(index)
}
