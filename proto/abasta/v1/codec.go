package abastav1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName: content-subtype JSON кодека ("application/grpc+json").
const CodecName = "json"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec сериализует сообщения ComposeService в JSON.
type Codec struct{}

// Marshal кодирует сообщение.
func (Codec) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("abastav1 codec: nil message")
	}
	return json.Marshal(v)
}

// Unmarshal декодирует сообщение. Пустое тело оставляет v нетронутым.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Name возвращает имя кодека.
func (Codec) Name() string {
	return CodecName
}
