package prompt

// PlatePrompt is the narrowly-scoped OCR instruction for number plates.
// The schema has one field on purpose: a missing plate is an acceptable
// outcome, so the response must be trivially parseable or discarded.
func PlatePrompt() string {
	return `Look at this image. Find any vehicle number plate.
Indian plates: white/yellow rectangle, black text e.g. HR26DQ5588 DL1CAB1234 MH12AB1234.
Even if it is slightly blurry or partial, try your very best to extract every readable character.

Respond with ONLY a JSON object:
{
  "detected_plate": "<plate string without spaces, e.g. HR26DQ5588, or null if absolutely no plate is visible>"
}`
}

// PlateResponse matches the schema requested by PlatePrompt.
type PlateResponse struct {
	DetectedPlate string `json:"detected_plate"`
}
