package protocol

import (
	"encoding/binary"
	"io"
)

/*
Handshake exchange:

	client: 4 bytes magic "TRTP", 4 bytes sub-protocol (ignored),
	        2 bytes version, 2 bytes sub-version (ignored)
	server: 4 bytes magic "TRTP", 4 bytes result code
*/

// HandshakeMagic opens both directions of the handshake.
const HandshakeMagic = "TRTP"

// Handshake request and reply sizes in bytes.
const (
	ClientHelloLen = 12
	ServerHelloLen = 8
)

// Handshake result codes.
const (
	HandshakeOK          uint32 = 0
	HandshakeErrProtocol uint32 = 1
	HandshakeErrVersion  uint32 = 2
)

// ClientHello is the fixed 12-byte greeting a client sends after connecting.
type ClientHello struct {
	Magic      [4]byte
	SubProto   [4]byte
	Version    uint16
	SubVersion uint16
}

// ReadClientHello reads and parses the 12-byte client greeting.
func ReadClientHello(reader io.Reader) (ClientHello, error) {
	var b [ClientHelloLen]byte
	if _, err := io.ReadFull(reader, b[:]); err != nil {
		return ClientHello{}, err
	}

	var hello ClientHello
	copy(hello.Magic[:], b[0:4])
	copy(hello.SubProto[:], b[4:8])
	hello.Version = binary.BigEndian.Uint16(b[8:10])
	hello.SubVersion = binary.BigEndian.Uint16(b[10:12])
	return hello, nil
}

// Result returns the handshake code the server answers this greeting with.
func (h *ClientHello) Result() uint32 {
	if string(h.Magic[:]) != HandshakeMagic {
		return HandshakeErrProtocol
	}
	if h.Version != Version {
		return HandshakeErrVersion
	}
	return HandshakeOK
}

// WriteServerHello writes the 8-byte handshake reply with the given code.
func WriteServerHello(writer io.Writer, code uint32) error {
	var b [ServerHelloLen]byte
	copy(b[0:4], HandshakeMagic)
	binary.BigEndian.PutUint32(b[4:8], code)
	_, err := writer.Write(b[:])
	return err
}

// EncodeClientHello serializes a client greeting, used by tests and client tooling.
func EncodeClientHello(version, subVersion uint16) [ClientHelloLen]byte {
	var b [ClientHelloLen]byte
	copy(b[0:4], HandshakeMagic)
	binary.BigEndian.PutUint16(b[8:10], version)
	binary.BigEndian.PutUint16(b[10:12], subVersion)
	return b
}
