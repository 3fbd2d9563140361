package ps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/plumbing/transport/ssh"
)

// CloneCredentials authenticate Restore against a git remote. Which fields
// apply depends on the remote: HTTP(S) remotes take Token or
// Username/Password, SSH remotes take a private key. A nil or zero value
// clones anonymously.
type CloneCredentials struct {
	Token      string
	Username   string
	Password   string
	KeyFile    string // defaults to ~/.ssh/id_rsa for SSH remotes
	Passphrase string
}

var errCredentialMismatch = errors.New("credentials do not match the remote")

// authFor picks the go-git auth method for a remote with the given scheme.
func (c *CloneCredentials) authFor(scheme urlScheme) (transport.AuthMethod, error) {
	if c == nil || *c == (CloneCredentials{}) {
		return nil, nil
	}

	switch scheme {
	case schemeSSH:
		if c.Token != "" {
			return nil, fmt.Errorf("%w: a token needs an https remote", errCredentialMismatch)
		}
		keyFile := c.KeyFile
		if keyFile == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("locating default ssh key: %w", err)
			}
			keyFile = filepath.Join(home, ".ssh", "id_rsa")
		}
		user := c.Username
		if user == "" {
			user = "git"
		}
		keys, err := ssh.NewPublicKeysFromFile(user, keyFile, c.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("loading ssh key %s: %w", keyFile, err)
		}
		return keys, nil

	case schemeHTTP, schemeHTTPS:
		if c.KeyFile != "" {
			return nil, fmt.Errorf("%w: an ssh key needs an ssh remote", errCredentialMismatch)
		}
		if c.Token != "" {
			// Hosts ignore the user name for token auth but require one.
			return &http.BasicAuth{Username: "git", Password: c.Token}, nil
		}
		if c.Username != "" {
			return &http.BasicAuth{Username: c.Username, Password: c.Password}, nil
		}
		return nil, nil
	}

	// Local clones need no auth.
	return nil, nil
}
