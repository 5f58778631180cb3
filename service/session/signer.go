package session

import (
	"crypto/ecdsa"
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

// Signer holds the market participant's wallet key and produces the two
// signature flavors the marketplace accepts: personal-sign for login
// challenges and EIP-712 typed data for orders.
type Signer struct {
	key     *ecdsa.PrivateKey
	address string
}

func NewSigner(privateKeyHex string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "failed on parse wallet private key")
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

// Address is the checksummed wallet address.
func (s *Signer) Address() string {
	return s.address
}

// SignMessage produces an Ethereum personal-sign signature over msg.
func (s *Signer) SignMessage(msg string) (string, error) {
	digest := accounts.TextHash([]byte(msg))
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return "", errors.Wrap(err, "failed on sign login challenge")
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// SignTypedData signs the server-provided EIP-712 payload. The payload
// arrives in wallet RPC shape and needs two fixups before hashing:
// the primary type is not named, and uint fields are serialized as
// {"type":"BigNumber","hex":"0x..."} objects.
func (s *Signer) SignTypedData(raw json.RawMessage) (string, error) {
	var payload struct {
		Types   map[string][]apitypes.Type `json:"types"`
		Domain  apitypes.TypedDataDomain   `json:"domain"`
		Message map[string]interface{}     `json:"value"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", errors.Wrap(err, "failed on decode typed data payload")
	}
	if len(payload.Message) == 0 {
		return "", errors.New("typed data payload has no value to sign")
	}

	primary, err := inferPrimaryType(payload.Types)
	if err != nil {
		return "", err
	}

	typed := apitypes.TypedData{
		Types:       payload.Types,
		PrimaryType: primary,
		Domain:      payload.Domain,
		Message:     normalizeMessage(payload.Message),
	}
	if typed.Types["EIP712Domain"] == nil {
		typed.Types["EIP712Domain"] = []apitypes.Type{
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		}
	}

	digest, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return "", errors.Wrap(err, "failed on hash typed data")
	}
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return "", errors.Wrap(err, "failed on sign typed data")
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// inferPrimaryType finds the one struct type no other struct references.
func inferPrimaryType(types map[string][]apitypes.Type) (string, error) {
	referenced := make(map[string]bool)
	for _, fields := range types {
		for _, f := range fields {
			referenced[strings.TrimSuffix(f.Type, "[]")] = true
		}
	}
	for name := range types {
		if name == "EIP712Domain" || referenced[name] {
			continue
		}
		return name, nil
	}
	return "", errors.New("unable to infer primary type from typed data")
}

// normalizeMessage rewrites serialized BigNumber objects into the decimal
// strings the typed data hasher expects, recursing into nested structs
// and arrays.
func normalizeMessage(msg map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(msg))
	for k, v := range msg {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		if hex, ok := val["hex"].(string); ok && len(val) <= 2 {
			if n, err := hexutil.DecodeBig(hex); err == nil {
				return n.String()
			}
		}
		return normalizeMessage(val)
	case []interface{}:
		items := make([]interface{}, len(val))
		for i, item := range val {
			items[i] = normalizeValue(item)
		}
		return items
	default:
		return v
	}
}
