package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/qualitylens/pkg/models"
)

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeIntents accepts {"intents": [...]} or a bare JSON array.
func DecodeIntents(text string) ([]string, error) {
	s := stripFences(text)

	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return arr, nil
	}

	var obj struct {
		Intents []string `json:"intents"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("%w: intents: %v", ErrInvalidResponse, err)
	}
	if obj.Intents == nil {
		return nil, fmt.Errorf("%w: intents: missing intents field", ErrInvalidResponse)
	}
	return obj.Intents, nil
}

// DecodeTopics parses a topic analysis. Topics with a blank name or a
// negative count are dropped.
func DecodeTopics(text string) (models.TopicAnalysis, error) {
	var out models.TopicAnalysis
	if err := json.Unmarshal([]byte(stripFences(text)), &out); err != nil {
		return models.TopicAnalysis{}, fmt.Errorf("%w: topics: %v", ErrInvalidResponse, err)
	}

	topics := make([]models.Topic, 0, len(out.Topics))
	for _, t := range out.Topics {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" || t.Count < 0 {
			continue
		}
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return models.TopicAnalysis{}, fmt.Errorf("%w: topics: no usable topics", ErrInvalidResponse)
	}
	out.Topics = topics
	out.Summary = strings.TrimSpace(out.Summary)
	return out, nil
}

// DecodeInsight accepts {"insight": "..."}; plain prose is taken as is.
func DecodeInsight(text string) (string, error) {
	s := stripFences(text)
	if strings.HasPrefix(s, "{") {
		var obj struct {
			Insight string `json:"insight"`
		}
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return "", fmt.Errorf("%w: insight: %v", ErrInvalidResponse, err)
		}
		s = strings.TrimSpace(obj.Insight)
	}
	if s == "" {
		return "", fmt.Errorf("%w: insight: empty", ErrInvalidResponse)
	}
	return s, nil
}
