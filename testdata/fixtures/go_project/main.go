package main

import (
	"fmt"

	"example.com/userapi/model"
	"example.com/userapi/store"
)

func main() {
	repo := store.NewMemStore()
	user := model.NewUser("Ada", "ada@example.com")
	if err := repo.Save(user); err != nil {
		fmt.Println("save failed:", err)
		return
	}
	fmt.Println("created user", user.ID)
}
