// Package model содержит доменные сущности сервиса приёма возвратов.
package model

import "time"

// User представляет учётную запись администратора.
type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	IsAdmin      bool
	CreatedAt    time.Time
}

// Principal описывает аутентифицированного пользователя без секретных данных.
type Principal struct {
	ID      int64
	Email   string
	IsAdmin bool
}

// ClaimStatus описывает статус рассмотрения заявки на возврат.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "Pending"
	ClaimStatusApproved ClaimStatus = "Approved"
	ClaimStatusRejected ClaimStatus = "Rejected"
)

// ClaimSubmission содержит поля заявки, которые разрешено передавать клиенту.
// Статуса здесь нет: его назначает сервис.
type ClaimSubmission struct {
	OrderNumber        string `validate:"required,max=64"`
	Email              string `validate:"required,email,max=254"`
	Name               string `validate:"required,max=200"`
	Address            string `validate:"required,max=500"`
	PhoneNumber        string `validate:"required,max=32,phone"`
	Brand              string `validate:"required,max=200"`
	ProblemDescription string `validate:"required,max=5000"`
}

// Claim описывает сохранённую заявку на возврат товара.
type Claim struct {
	ID                 string
	OrderNumber        string
	Email              string
	Name               string
	Address            string
	PhoneNumber        string
	Brand              string
	ProblemDescription string
	Status             ClaimStatus
	CreatedAt          time.Time
}
