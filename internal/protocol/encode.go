package protocol

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Encode marshals an outgoing message. Marshalling the vocabulary types cannot
// fail at runtime; an error here is a programming bug, so it is logged and an
// empty frame returned rather than propagated to every call site.
func Encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "protocol").Msg("encode")
		return nil
	}
	return b
}

// EncodeSignalData marshals a SignalData for embedding into Signal.Data.
func EncodeSignalData(d SignalData) json.RawMessage {
	return Encode(d)
}

// Error builds the directed error reply carried back to the originating session.
func Error(msg string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: msg}
}
