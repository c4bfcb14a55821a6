package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"seloger-notifier/models"
)

const verdictSystemPrompt = "You are a real-estate agent reading a property listing. " +
	"You must decide whether the listing is interesting for your client."

const summarySystemPrompt = "You are a real-estate agent reading a property listing. " +
	"You must write a relevant summary of it for your client."

const summaryTemplate = `**Location**
- Neighbourhood: [name], [town] ([postcode])
- Nearby: [notable surroundings]

**Property**
- Type: [house/town house/apartment/...]
- Price: [price] € ([agency fees if given])
- Living area: [area] m²
- Land: [area] m²

**Layout**
- Rooms: [total]
- Kitchen: [description]
- Living room: [description and area]
- Bedrooms: [count] (+ [offices/playrooms if any])
- Bathrooms: [count and features]
- Toilets: [count]
- Outbuildings: [garden, garage, cellar, ...]

**Features**
- Condition: [general condition]
- Built: [year]
- Heating: [type]
- Special equipment: [anything notable]
- Exposure: [if given]

**Energy**
- DPE: [class]
- GES: [class]

**Other**
- [anything else worth knowing]
- [risk information if available]`

func verdictPrompt(description, additionalInfo string, criteria []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the description of a property listing: %s\n\n", description)
	fmt.Fprintf(&b, "Additional information: %s\n\n", additionalInfo)
	fmt.Fprintf(&b, "Interesting criteria: %s. WARNING: when a criterion starts with NOT "+
		"and the listing matches it, the listing is immediately not interesting.\n\n", strings.Join(criteria, ", "))
	b.WriteString(`Does this listing meet these criteria? Answer with exactly this JSON structure and nothing else: ` +
		`{"interesting": true/false, "title": "listing title"}`)
	return b.String()
}

func summaryPrompt(description, additionalInfo string) string {
	return fmt.Sprintf("Give me a relevant bullet-point summary (price, area, bedrooms, condition, criteria, ...) "+
		"formatted with bold and italic, of this property listing: %s\n\n"+
		"Additional information: %s\n\n"+
		"The expected format is:\n%s", description, additionalInfo, summaryTemplate)
}

type verdictReply struct {
	Interesting *bool  `json:"interesting"`
	Title       string `json:"title"`
}

// parseVerdict reads the model's JSON answer. Code fences around the object
// are tolerated; anything else that is not a JSON object with an
// "interesting" field is rejected.
func parseVerdict(reply string) (models.Verdict, bool) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var r verdictReply
	if err := json.Unmarshal([]byte(s), &r); err != nil || r.Interesting == nil {
		return models.Verdict{}, false
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = models.UnknownTitle
	}
	return models.Verdict{Interesting: *r.Interesting, Title: title}, true
}
