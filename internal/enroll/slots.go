package enroll

// Slot is a named photo position in an enrollment submission.
type Slot struct {
	Name     string
	Required bool
}

// Slot names as they appear in requests.
const (
	SlotFront = "front"
	SlotLeft  = "left"
	SlotRight = "right"
)

// DefaultSlots is the ordered set of photos a full enrollment takes.
// Front must come first: fallback enrollment relies on it.
var DefaultSlots = []Slot{
	{Name: SlotFront, Required: true},
	{Name: SlotLeft, Required: true},
	{Name: SlotRight, Required: true},
}

// Submission maps slot names to transport-encoded photos.
// A missing key and an empty string both mean "not provided".
type Submission map[string]string

// Has reports whether a photo was provided for the slot.
func (s Submission) Has(slot string) bool {
	return s[slot] != ""
}

// slotIndex returns the 1-based position of name in slots, or 0.
func slotIndex(slots []Slot, name string) int {
	for i, s := range slots {
		if s.Name == name {
			return i + 1
		}
	}
	return 0
}
