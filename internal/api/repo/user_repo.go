package repo

import (
	"intranet"
	"intranet/internal/api/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	Db *gorm.DB
}

func NewUserRepository() *UserRepository {
	return &UserRepository{Db: intranet.DB}
}

func (slf *UserRepository) FindByEmail(email string) (models.User, error) {
	var user models.User
	err := slf.Db.Preload("Department").Preload("Role").Where("email = ?", email).First(&user).Error
	return user, err
}

func (slf *UserRepository) FindByID(id uint) (models.User, error) {
	var user models.User
	err := slf.Db.Preload("Department").Preload("Role").First(&user, id).Error
	return user, err
}

func (slf *UserRepository) Create(user *models.User) error {
	return slf.Db.Create(user).Error
}

func (slf *UserRepository) Update(user *models.User) error {
	return slf.Db.Save(user).Error
}

func (slf *UserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := slf.Db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (slf *UserRepository) DepartmentExists(id uint) (bool, error) {
	var count int64
	err := slf.Db.Model(&models.Department{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (slf *UserRepository) GetUsersByDepartment(departmentID uint) ([]models.User, error) {
	var users []models.User
	err := slf.Db.Preload("Department").Preload("Role").
		Where("department_id = ?", departmentID).
		Order("name").
		Find(&users).Error
	return users, err
}

func (slf *UserRepository) FindByIDs(ids []uint) ([]models.User, error) {
	var users []models.User
	err := slf.Db.Preload("Department").Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (slf *UserRepository) GetAllWithDetails() ([]models.User, error) {
	var users []models.User
	err := slf.Db.Preload("Department").Preload("Role").Order("name").Find(&users).Error
	return users, err
}
