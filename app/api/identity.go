package api

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gin-gonic/gin"
)

// IdentityResolver derives a user id from a request when the client supplies
// none. The default hashes client IP and User-Agent, which is a weak,
// collision-prone pseudo-identity: two users behind one NAT with the same
// browser share an id, and a browser upgrade mints a new one. It keeps
// anonymous tracked lists working and is NOT authentication; a real
// deployment should plug in a session-token resolver here.
type IdentityResolver interface {
	Resolve(c *gin.Context) string
}

type hashIdentityResolver struct{}

func NewHashIdentityResolver() IdentityResolver {
	return hashIdentityResolver{}
}

func (hashIdentityResolver) Resolve(c *gin.Context) string {
	h := sha256.Sum256([]byte(c.ClientIP() + "|" + c.Request.UserAgent()))
	return hex.EncodeToString(h[:8])
}
