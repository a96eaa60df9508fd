package dto

import (
	"github.com/allisson/users/internal/user/usecase"
)

// ToCreateUserInput converts a CreateUserRequest DTO to a CreateUserInput use case input
func ToCreateUserInput(req CreateUserRequest) usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Name:       req.Name,
		Email:      req.Email,
		CPF:        req.CPF,
		Profession: req.Profession,
	}
}

// ToUserResponse converts a use case output to a UserResponse DTO
func ToUserResponse(output *usecase.UserOutput) UserResponse {
	return UserResponse{
		ID:         output.ID.String(),
		Name:       output.Name,
		Email:      output.Email,
		CPF:        output.CPF,
		Profession: output.Profession,
		CreatedAt:  output.CreatedAt,
	}
}
