package core

import "fmt"

// Identity is the author recorded on every commit.
type Identity struct {
	Name  string `json:"name" toml:"name" yaml:"name"`
	Email string `json:"email" toml:"email" yaml:"email"`
}

func (identity Identity) String() string {
	return fmt.Sprintf("%s <%s>", identity.Name, identity.Email)
}
