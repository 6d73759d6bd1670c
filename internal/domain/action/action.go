package action

import "errors"

// Catalog names. The rows are seeded by migration and never change.
const (
	UserLogin      = "User Login"
	UserLogout     = "User Logout"
	APIConsumption = "API Consumption"
	GetTransaction = "GET Transaction"
)

type Action struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Catalog is the seed set, in id order.
var Catalog = []Action{
	{ID: 1, Name: UserLogin},
	{ID: 2, Name: UserLogout},
	{ID: 3, Name: APIConsumption},
	{ID: 4, Name: GetTransaction},
}

var ErrNotFound = errors.New("action not found")
