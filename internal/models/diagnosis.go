package models

// DiagnosisQuestion is a two-choice question whose answers add to a tally of
// scoring codes. Questions are asked in authored order.
type DiagnosisQuestion struct {
	ID       string
	Prompt   string
	Option1  string
	Option2  string
	Code1    string
	Code2    string
	AxisID   string
	AxisName string
	ImageURL string
}

type diagnosisQuestionRow struct {
	Prompt  string `col:"question_text" validate:"required"`
	Option1 string `col:"option_1" validate:"required"`
	Option2 string `col:"option_2" validate:"required"`
	Code1   string `col:"code_1" validate:"required"`
	Code2   string `col:"code_2" validate:"required"`
}

func ParseDiagnosisQuestion(row map[string]string) (DiagnosisQuestion, error) {
	id := idOf(row, "question_id")
	raw := diagnosisQuestionRow{
		Prompt:  field(row, "question_text", "text"),
		Option1: field(row, "option_1"),
		Option2: field(row, "option_2"),
		Code1:   field(row, "code_1"),
		Code2:   field(row, "code_2"),
	}
	if err := validateRow(id, raw); err != nil {
		return DiagnosisQuestion{}, err
	}

	return DiagnosisQuestion{
		ID:       id,
		Prompt:   raw.Prompt,
		Option1:  raw.Option1,
		Option2:  raw.Option2,
		Code1:    raw.Code1,
		Code2:    raw.Code2,
		AxisID:   field(row, "axis_id"),
		AxisName: field(row, "axis_name"),
		ImageURL: ConvertMediaLink(field(row, "image_url")),
	}, nil
}

// Code returns the scoring code of option 1 or 2.
func (q DiagnosisQuestion) Code(option int) string {
	if option == 1 {
		return q.Code1
	}
	return q.Code2
}

func (q DiagnosisQuestion) OptionText(option int) string {
	if option == 1 {
		return q.Option1
	}
	return q.Option2
}

// DiagnosisResult is one candidate outcome. Condition holds the raw rule text,
// e.g. "u>=U,l>=L"; it is compiled by the resolver.
type DiagnosisResult struct {
	ID          string
	TypeCode    string
	TypeName    string
	Condition   string
	Description string
	Strength    string
	Weakness    string
	Advice      string
	ImageURL    string
}

type diagnosisResultRow struct {
	TypeCode  string `col:"type_code" validate:"required"`
	TypeName  string `col:"type_name" validate:"required"`
	Condition string `col:"conditions" validate:"required"`
}

func ParseDiagnosisResult(row map[string]string) (DiagnosisResult, error) {
	id := idOf(row, "type_id")
	raw := diagnosisResultRow{
		TypeCode:  field(row, "type_code"),
		TypeName:  field(row, "type_name"),
		Condition: field(row, "conditions", "condition"),
	}
	if err := validateRow(id, raw); err != nil {
		return DiagnosisResult{}, err
	}

	return DiagnosisResult{
		ID:          id,
		TypeCode:    raw.TypeCode,
		TypeName:    raw.TypeName,
		Condition:   raw.Condition,
		Description: field(row, "description"),
		Strength:    field(row, "strength"),
		Weakness:    field(row, "weakness"),
		Advice:      field(row, "advice"),
		ImageURL:    ConvertMediaLink(field(row, "image_url")),
	}, nil
}
