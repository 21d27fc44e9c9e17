package pipeline

// DefaultStyle is the style used when a message carries an unknown or
// empty style slug.
const DefaultStyle = "natural"

// stylePrompts maps each style slug to the text prompt fed to the
// colour generation model.
var stylePrompts = map[string]string{
	"natural": "a photorealistic portrait with natural skin tones and realistic hair colour, " +
		"high quality, soft lighting",
	"vivid": "a vibrant portrait with bold, saturated colours, cinematic lighting, " +
		"high quality",
	"vintage": "a vintage film photograph portrait, warm tones, slight grain, " +
		"Kodachrome colour palette",
	"cool": "a portrait with cool blue-toned colour grading, soft shadows, " +
		"high quality photography",
	"warm": "a portrait with warm golden-hour colour grading, orange and yellow tones, " +
		"high quality photography",
}

// PromptFor returns the generation prompt for the given style slug.
// Unknown slugs fall back to the natural prompt; resolution never
// fails.
func PromptFor(style string) string {
	if prompt, ok := stylePrompts[style]; ok {
		return prompt
	}
	return stylePrompts[DefaultStyle]
}

// Styles returns the known style slugs.
func Styles() []string {
	styles := make([]string, 0, len(stylePrompts))
	for slug := range stylePrompts {
		styles = append(styles, slug)
	}
	return styles
}
