package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost задаёт фиксированную стоимость bcrypt для хешей паролей.
const PasswordCost = 10

// MaxPasswordBytes задаёт предел bcrypt на длину пароля.
const MaxPasswordBytes = 72

// dummyHash сравнивается с паролем, когда пользователь не найден, чтобы время
// ответа не зависело от существования email.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("claimdesk-dummy-password"), PasswordCost)

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
