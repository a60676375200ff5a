package users

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/saiset-co/sai-authchain/types"
)

var hashCost = bcrypt.DefaultCost

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", types.Errorf(types.ErrInvalidParameter, "password is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", types.WrapError(err, "failed to hash password")
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
