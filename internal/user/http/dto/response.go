package dto

// UserResponse represents the API response for a user
type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	CPF        string `json:"cpf"`
	Profession string `json:"profession"`
	CreatedAt  string `json:"createdAt"`
}
