// +build ignore

// generate_hash.go — генерация Argon2id-хеша пароля создателя.
// Запуск: go run scripts/generate_hash.go <пароль>
//
// Полученную строку положите в ADMIN_PASSWORD_HASH — команда «логин»
// в личке бота сверяется именно с ней.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

// Параметры должны совпадать с теми, что парсит verifyArgon2id.
const (
	argonMemory  uint32 = 64 * 1024
	argonTime    uint32 = 3
	argonThreads uint8  = 2
	argonKeyLen  uint32 = 32
	saltLen             = 16
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Использование: go run scripts/generate_hash.go <пароль>")
		os.Exit(1)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка генерации соли: %v\n", err)
		os.Exit(1)
	}

	key := argon2.IDKey([]byte(os.Args[1]), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	fmt.Println("Значение для ADMIN_PASSWORD_HASH:")
	fmt.Printf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s\n",
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}
