package models

// Flash is a one-time notice for the user. Category is a Bootstrap alert
// style ("success", "danger") and only selects how the notice is rendered.
type Flash struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

func SuccessFlash(text string) Flash {
	return Flash{Category: "success", Text: text}
}

func DangerFlash(text string) Flash {
	return Flash{Category: "danger", Text: text}
}
