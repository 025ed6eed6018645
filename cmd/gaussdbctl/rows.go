package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeRows parses the JSON array returned by the select tool, keeping the column order of the first row.
func decodeRows(text string) ([]string, [][]string, []map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	err := expectDelim(dec, '[')
	if err != nil {
		return nil, nil, nil, err
	}

	header := []string{}
	data := [][]string{}
	rows := []map[string]any{}

	for dec.More() {
		err := expectDelim(dec, '{')
		if err != nil {
			return nil, nil, nil, err
		}

		row := map[string]any{}
		columns := []string{}
		for dec.More() {
			token, err := dec.Token()
			if err != nil {
				return nil, nil, nil, err
			}

			key, ok := token.(string)
			if !ok {
				return nil, nil, nil, fmt.Errorf("Unexpected token %v in row", token)
			}

			var value any
			err = dec.Decode(&value)
			if err != nil {
				return nil, nil, nil, err
			}

			row[key] = value
			columns = append(columns, key)
		}

		err = expectDelim(dec, '}')
		if err != nil {
			return nil, nil, nil, err
		}

		if len(rows) == 0 {
			header = columns
		}

		line := make([]string, len(header))
		for i, column := range header {
			line[i] = formatCell(row[column])
		}

		rows = append(rows, row)
		data = append(data, line)
	}

	err = expectDelim(dec, ']')
	if err != nil {
		return nil, nil, nil, err
	}

	return header, data, rows, nil
}

func expectDelim(dec *json.Decoder, delim json.Delim) error {
	token, err := dec.Token()
	if err != nil {
		return fmt.Errorf("Failed to parse rows: %w", err)
	}

	if token != delim {
		return fmt.Errorf("Failed to parse rows: expected %q, got %v", delim, token)
	}

	return nil
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(out)
	}
}
