package dto

type GenerateTextRequest struct {
	Kind   string `json:"kind" binding:"required,oneof=post task poster"`
	Prompt string `json:"prompt" binding:"required"`
}

type GenerateImageRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	SourceImage string `json:"sourceImage"` // optional data URL to edit
}

type ModerateRequest struct {
	Text string `json:"text" binding:"required"`
}

type AssistantTurn struct {
	Role string `json:"role" binding:"required,oneof=user model"`
	Text string `json:"text"`
}

type AssistantRequest struct {
	History []AssistantTurn `json:"history"`
	Message string          `json:"message" binding:"required"`
}

type GeneratedTextResponse struct {
	Text string `json:"text"`
}

type GeneratedImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

type ModerationResponse struct {
	Verdict string `json:"verdict"`
	Allowed bool   `json:"allowed"`
}
