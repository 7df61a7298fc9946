// Package jsonpayload provides a JSON implementation of eventstore.PayloadSerializer.
//
// Payloads are encoded as a packet carrying the registered name of the payload's Go type
// next to the JSON of the value, so they can be decoded back into the same type:
//
//	{"type":"orderPlaced","data":{"OrderID":"order1","Amount":42}}
//
// Types must be registered before they are serialized or deserialized.
// A few builtin types are registered by New.
package jsonpayload

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/simple-eventlog-go/eventstore"
)

var (
	// ErrUnregisteredPayloadType is returned when a payload of an unregistered type is serialized.
	ErrUnregisteredPayloadType = errors.New("payload type is not registered")

	// ErrUnknownPayloadType is returned when a packet names a type that is not registered.
	ErrUnknownPayloadType = errors.New("payload type name is unknown")

	// ErrInvalidPacket is returned when the data to deserialize is not a valid payload packet.
	ErrInvalidPacket = errors.New("payload packet is not valid")

	// ErrEmptyTypeName is returned when a type is registered with an empty name.
	ErrEmptyTypeName = errors.New("payload type name must not be empty")

	// ErrNilPrototype is returned when nil is registered as a prototype.
	ErrNilPrototype = errors.New("payload prototype must not be nil")

	// ErrConflictingRegistration is returned when a name or a type is registered twice for different counterparts.
	ErrConflictingRegistration = errors.New("conflicting payload type registration")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type packet struct {
	Type string              `json:"type"`
	Data jsoniter.RawMessage `json:"data"`
}

// Serializer implements eventstore.PayloadSerializer with JSON packets.
// It is safe for concurrent use.
type Serializer struct {
	mu          sync.RWMutex
	typesByName map[string]reflect.Type
	namesByType map[reflect.Type]string
}

// New creates a Serializer with the builtin types registered:
//
//	"string", "bool", "int", "int64", "float64", "map" (map[string]any), "list" ([]any)
//
// Numbers nested in "map" and "list" payloads come back as float64, since JSON does not keep
// the Go type of a value. Register a concrete type when the exact types matter.
func New() *Serializer {
	s := &Serializer{
		typesByName: make(map[string]reflect.Type),
		namesByType: make(map[reflect.Type]string),
	}

	builtins := map[string]any{
		"string":  "",
		"bool":    false,
		"int":     0,
		"int64":   int64(0),
		"float64": float64(0),
		"map":     map[string]any{},
		"list":    []any{},
	}

	for name, prototype := range builtins {
		_ = s.Register(name, prototype) // can not conflict on a fresh Serializer
	}

	return s
}

// Register maps name to the Go type of prototype.
// Registering the same pair again is a no-op.
func (s *Serializer) Register(name string, prototype any) error {
	if name == "" {
		return ErrEmptyTypeName
	}

	if prototype == nil {
		return ErrNilPrototype
	}

	typ := reflect.TypeOf(prototype)

	s.mu.Lock()
	defer s.mu.Unlock()

	if registered, found := s.typesByName[name]; found && registered != typ {
		return fmt.Errorf("%w: name %q is already registered for %s", ErrConflictingRegistration, name, registered)
	}

	if registered, found := s.namesByType[typ]; found && registered != name {
		return fmt.Errorf("%w: %s is already registered as %q", ErrConflictingRegistration, typ, registered)
	}

	s.typesByName[name] = typ
	s.namesByType[typ] = name

	return nil
}

// SerializePayload encodes the payload into a JSON packet.
func (s *Serializer) SerializePayload(payload any) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: <nil>", ErrUnregisteredPayloadType)
	}

	typ := reflect.TypeOf(payload)

	s.mu.RLock()
	name, found := s.namesByType[typ]
	s.mu.RUnlock()

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredPayloadType, typ)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload of type %q failed: %w", name, err)
	}

	return json.Marshal(packet{Type: name, Data: data})
}

// DeserializePayload decodes a JSON packet into a value of the registered type.
func (s *Serializer) DeserializePayload(data []byte) (any, error) {
	var p packet

	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Join(ErrInvalidPacket, err)
	}

	if p.Type == "" || len(p.Data) == 0 {
		return nil, ErrInvalidPacket
	}

	s.mu.RLock()
	typ, found := s.typesByName[p.Type]
	s.mu.RUnlock()

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPayloadType, p.Type)
	}

	value := reflect.New(typ)
	if err := json.Unmarshal(p.Data, value.Interface()); err != nil {
		return nil, fmt.Errorf("decoding payload of type %q failed: %w", p.Type, err)
	}

	return value.Elem().Interface(), nil
}

var _ eventstore.PayloadSerializer = (*Serializer)(nil)
