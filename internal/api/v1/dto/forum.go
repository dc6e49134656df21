package dto

type TopicCreateDTO struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type TopicMessageCreateDTO struct {
	Content string `json:"content" validate:"required,max=2000"`
}
