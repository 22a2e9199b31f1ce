// Package privilege defines the 64-bit user privilege mask and the table of
// privileges required per transaction type.
package privilege // import "github.com/mxd-net/mxd-core/privilege"

import "github.com/mxd-net/mxd-core/protocol"

// Mask is a bitmask of user privileges.
type Mask uint64

const (
	// DownloadFile lets the user download files and view file listings.
	DownloadFile Mask = 1 << 2
	// ReadChat lets the user read chat messages.
	ReadChat Mask = 1 << 9
	// SendChat lets the user send chat messages.
	SendChat Mask = 1 << 10
	// ShowInList makes the user appear in the user list.
	ShowInList Mask = 1 << 13
	// CreateUser lets the user create new accounts over the wire.
	CreateUser Mask = 1 << 14
	// ChangeOwnPassword lets the user change their own password.
	ChangeOwnPassword Mask = 1 << 18
	// SendPrivateMessage lets the user send private messages.
	SendPrivateMessage Mask = 1 << 19
	// NewsReadArticle lets the user read news articles.
	NewsReadArticle Mask = 1 << 20
	// NewsPostArticle lets the user post news articles.
	NewsPostArticle Mask = 1 << 21
	// DisconnectUser lets the user disconnect other users.
	DisconnectUser Mask = 1 << 22
	// GetClientInfo lets the user view other users' info.
	GetClientInfo Mask = 1 << 24
)

// None requires no privilege.
const None Mask = 0

// Admin holds every privilege bit up to bit 37.
const Admin Mask = 1<<38 - 1

// DefaultUser is the privilege set granted on successful login.
func DefaultUser() Mask {
	return DownloadFile |
		ReadChat |
		SendChat |
		ShowInList |
		ChangeOwnPassword |
		SendPrivateMessage |
		NewsReadArticle |
		NewsPostArticle |
		GetClientInfo
}

// Has reports whether the mask contains every bit of required.
func (m Mask) Has(required Mask) bool {
	return m&required == required
}

// table maps each transaction type to the privilege a client must hold to
// issue it. Types absent from the table require none.
var table = map[protocol.TransactionType]Mask{
	protocol.TypeGetFileNameList:     DownloadFile,
	protocol.TypeGetUserNameList:     GetClientInfo,
	protocol.TypeNewsArticleNameList: NewsReadArticle,
	protocol.TypeNewsArticleData:     NewsReadArticle,
	protocol.TypePostNewsArticle:     NewsPostArticle,
}

// Required returns the privilege needed for the given transaction type, or
// None when the type is ungated.
func Required(ty protocol.TransactionType) Mask {
	return table[ty]
}

// Gated returns a snapshot of every transaction type that requires a
// privilege, for table-driven checks.
func Gated() map[protocol.TransactionType]Mask {
	out := make(map[protocol.TransactionType]Mask, len(table))
	for ty, mask := range table {
		out[ty] = mask
	}
	return out
}
