package request

type MessageCreateDTO struct {
	Content  string `json:"content" validate:"required"`
	SenderID uint   `json:"senderId" validate:"required"`
	ChatID   uint   `json:"chatId" validate:"required"`
}

type CreatePrivateChatDTO struct {
	OtherUserID uint `json:"otherUserId" validate:"required"`
}

type CreateDepartmentChatDTO struct {
	DepartmentID uint   `json:"departmentId" validate:"required"`
	Name         string `json:"name" validate:"required"`
}

type CreateCustomGroupChatDTO struct {
	DepartmentID    uint   `json:"departmentId" validate:"required"`
	Name            string `json:"name" validate:"required"`
	SelectedUserIDs []uint `json:"selectedUserIds" validate:"required,min=1"`
}
