package web

import (
	"net/http"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

type transformView struct {
	core.Transformation
	Example string `json:"example"`
}

// transformExamples are the sample inputs shown in catalog previews.
var transformExamples = map[core.TransformationKind]string{
	core.TransformNone:               "value",
	core.TransformUppercase:          "hello world",
	core.TransformLowercase:          "HELLO World",
	core.TransformTrim:               "  padded  ",
	core.TransformCapitalize:         "john smith",
	core.TransformRemoveSpaces:       "a b  c",
	core.TransformRemoveSpecialChars: "a-b_c!",
	core.TransformFormatPhone:        "(555) 123-4567",
	core.TransformFormatEmail:        " John@Example.COM ",
	core.TransformExtractNumbers:     "order #42-7",
	core.TransformToBoolean:          "yes",
	core.TransformToNumber:           "$1,234.50",
	core.TransformFormatDate:         "25/12/2023",
	core.TransformExcelDate:          "44927",
}

func (s *Server) handleListTransforms(w http.ResponseWriter, r *http.Request) {
	all := core.Transformations()
	out := make([]transformView, len(all))
	for i, t := range all {
		out[i] = transformView{Transformation: t, Example: t.Preview(transformExamples[t.Kind])}
	}
	writeJSON(w, http.StatusOK, out)
}

type suggestRequest struct {
	Values []core.CellValue `json:"values"`
	Type   string           `json:"type" validate:"notblank"`
}

type suggestResponse struct {
	Suggestions []core.TransformationKind `json:"suggestions"`
	YearOnly    bool                      `json:"yearOnly"`
}

func (s *Server) handleSuggestTransforms(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestResponse{
		Suggestions: core.SuggestTransformations(req.Values, core.ParseSQLType(req.Type)),
		YearOnly:    core.HasYearOnlyValues(req.Values),
	})
}

type applyTransformRequest struct {
	Values    []core.CellValue `json:"values" validate:"required"`
	Transform string           `json:"transform" validate:"notblank"`
}

type transformFailure struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type applyTransformResponse struct {
	Values []core.CellValue   `json:"values"`
	Failed []transformFailure `json:"failed,omitempty"`
}

// handleApplyTransform transforms a column of values. Values the transform
// cannot handle are returned unchanged and listed in failed.
func (s *Server) handleApplyTransform(w http.ResponseWriter, r *http.Request) {
	var req applyTransformRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, r, err)
		return
	}
	kind, err := core.ParseTransformationKind(req.Transform)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := applyTransformResponse{Values: make([]core.CellValue, len(req.Values))}
	for i, v := range req.Values {
		out, err := core.ApplyTransformation(v, kind)
		if err != nil {
			resp.Values[i] = v
			resp.Failed = append(resp.Failed, transformFailure{Index: i, Message: err.Error()})
			continue
		}
		resp.Values[i] = out
	}
	writeJSON(w, http.StatusOK, resp)
}
