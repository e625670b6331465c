package utils

import "golang.org/x/crypto/bcrypt"

// dummyHash is compared against when a login names an unknown user so the
// response time does not reveal whether the username exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("filebox-dummy-password"), bcrypt.DefaultCost)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
