package generator

// Prompt is the message pair sent to the model. Values are immutable once built.
type Prompt struct {
	System string
	User   string
}

// Len reports the prompt size in characters.
func (p Prompt) Len() int {
	return len([]rune(p.System)) + len([]rune(p.User))
}
