// Package protocol implements the MXD wire protocol: the TRTP handshake, the
// 20-byte transaction frame header, the multi-fragment payload envelope and
// the field-tagged parameter encoding.
//
// This file is the single authoritative table for transaction types, field
// identifiers and reply error codes. Encoder, decoder, router and tests all
// take their numbers from here.
package protocol // import "github.com/mxd-net/mxd-core/protocol"

import (
	"strconv"
	"time"
)

// TransactionType identifies the requested operation of a transaction.
type TransactionType uint16

const (
	TypeLogin                TransactionType = 107
	TypePing                 TransactionType = 115
	TypeAgreed               TransactionType = 121
	TypeGetFileNameList      TransactionType = 200
	TypeDownloadBanner       TransactionType = 212
	TypeGetUserNameList      TransactionType = 300
	TypeSetClientUserInfo    TransactionType = 304
	TypeNewsCategoryNameList TransactionType = 370
	TypeNewsArticleNameList  TransactionType = 371
	TypeNewsArticleData      TransactionType = 400
	TypePostNewsArticle      TransactionType = 410
)

var transactionTypeNames = map[TransactionType]string{
	TypeLogin:                "Login",
	TypePing:                 "Ping",
	TypeAgreed:               "Agreed",
	TypeGetFileNameList:      "GetFileNameList",
	TypeDownloadBanner:       "DownloadBanner",
	TypeGetUserNameList:      "GetUserNameList",
	TypeSetClientUserInfo:    "SetClientUserInfo",
	TypeNewsCategoryNameList: "NewsCategoryNameList",
	TypeNewsArticleNameList:  "NewsArticleNameList",
	TypeNewsArticleData:      "NewsArticleData",
	TypePostNewsArticle:      "PostNewsArticle",
}

func (t TransactionType) String() string {
	if name, found := transactionTypeNames[t]; found {
		return name
	}
	return "Unknown(" + strconv.Itoa(int(t)) + ")"
}

// FieldID identifies one parameter in a transaction payload.
type FieldID uint16

const (
	FieldError            FieldID = 1
	FieldData             FieldID = 100
	FieldUserName         FieldID = 102
	FieldUserID           FieldID = 103
	FieldUserIcon         FieldID = 104
	FieldLogin            FieldID = 105
	FieldPassword         FieldID = 106
	FieldOptions          FieldID = 113
	FieldVersion          FieldID = 160
	FieldFileName         FieldID = 201
	FieldAutoResponse     FieldID = 215
	FieldNewsCategory     FieldID = 300
	FieldNewsPath         FieldID = 321
	FieldNewsArticleID    FieldID = 322
	FieldNewsDataFlavor   FieldID = 323
	FieldNewsArticle      FieldID = 324
	FieldNewsTitle        FieldID = 325
	FieldNewsArticleData  FieldID = 326
	FieldNewsArticleFlags FieldID = 327
)

// Repeatable reports whether the field may appear more than once in one
// payload. List replies repeat their entry field once per item.
func (f FieldID) Repeatable() bool {
	switch f {
	case FieldFileName, FieldUserName, FieldNewsCategory, FieldNewsArticle:
		return true
	default:
		return false
	}
}

// Reply header error codes.
const (
	ErrCodeOK                    uint32 = 0
	ErrCodeInternalServer        uint32 = 1
	ErrCodeInvalidPayload        uint32 = 2
	ErrCodeNotAuthenticated      uint32 = 3
	ErrCodeInsufficientPrivilege uint32 = 4
	ErrCodeNewsPathUnsupported   uint32 = 5
)

const (
	// HeaderLen is the length of a transaction frame header in bytes.
	HeaderLen = 20
	// MaxPayloadSize is the maximum allowed payload size for a buffered transaction.
	MaxPayloadSize = 1024 * 1024
	// MaxFrameData is the maximum data size per frame when writing.
	MaxFrameData = 32 * 1024
	// IOTimeout is the default timeout for reading or writing one transaction frame.
	IOTimeout = 5 * time.Second
	// HandshakeTimeout bounds the initial TRTP exchange.
	HandshakeTimeout = 5 * time.Second
	// Version is the only protocol version this server accepts.
	Version = 1
)
