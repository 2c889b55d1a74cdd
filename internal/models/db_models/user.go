package db_models

type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FullName     string
	IsAdmin      bool `gorm:"default:false"`
	IsActive     bool `gorm:"default:true"`
}
