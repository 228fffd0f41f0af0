package response

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/beanbocchi/blobfs/internal/model"
)

type CommonResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *model.Error `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// FromDTO writes data wrapped in a CommonResponse.
func FromDTO(w http.ResponseWriter, status int, data any) error {
	return write(w, status, CommonResponse{Data: data})
}

// FromMessage writes a plain message wrapped in a CommonResponse.
func FromMessage(w http.ResponseWriter, status int, message string) error {
	return write(w, status, CommonResponse{Data: MessageResponse{Message: message}})
}

// FromError writes err as a CommonResponse error. Errors carrying a code keep
// it; anything else is reported as an internal error.
func FromError(w http.ResponseWriter, status int, err error) error {
	e := model.ErrInternal
	var coded model.ErrorWithCode
	if errors.As(err, &coded) {
		e = model.NewError(coded.Code(), coded.Error())
	}
	return write(w, status, CommonResponse{Error: &e})
}

func write(w http.ResponseWriter, status int, body any) error {
	data, err := sonic.Marshal(body)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
