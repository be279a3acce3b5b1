package mapper

import (
	"intranet/internal/api/handler/response"
	"intranet/internal/api/models"
)

type UserMapper struct{}

func (UserMapper) EntityToUserResponse(user models.User) response.UserResponseDTO {
	dto := response.UserResponseDTO{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		DepartmentID: user.DepartmentID,
	}
	if user.Department != nil {
		dto.DepartmentName = user.Department.Name
	}
	if user.Role != nil {
		dto.Role = user.Role.Name
	}
	return dto
}
