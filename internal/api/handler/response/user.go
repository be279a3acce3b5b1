package response

type UserResponseDTO struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	DepartmentID   uint   `json:"departmentId"`
	DepartmentName string `json:"departmentName,omitempty"`
	Role           string `json:"role,omitempty"`
}

type AuthResponseDTO struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
	User         UserResponseDTO `json:"user"`
}
