package source

import (
	"encoding/json"

	"github.com/contextisneeded/questiond/internal/questions"
)

// decodeQuestion applies the shape check the random endpoint contract
// requires: a JSON object whose title, url and site are all strings. Any
// other shape, including valid JSON of the wrong type, is "no question".
func decodeQuestion(body []byte) (questions.Question, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return questions.Question{}, false
	}
	title, ok1 := payload["title"].(string)
	url, ok2 := payload["url"].(string)
	site, ok3 := payload["site"].(string)
	if !ok1 || !ok2 || !ok3 {
		return questions.Question{}, false
	}
	return questions.Question{Title: title, URL: url, Site: site}, true
}
