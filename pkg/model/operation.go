package model

import (
	perrors "pixelflow/internal/errors"
)

type Operation string

const (
	OperationFlip      Operation = "flip"
	OperationRotate    Operation = "rotate"
	OperationGrayscale Operation = "grayscale"
)

type Mode string

const (
	ModeSerial   Mode = "serial"
	ModeParallel Mode = "parallel"
)

var (
	// Operations is the demo matrix operation order.
	Operations = []Operation{OperationFlip, OperationRotate, OperationGrayscale}
	// Modes is the per-operation mode order, serial first.
	Modes = []Mode{ModeSerial, ModeParallel}
)

func (o Operation) Valid() bool {
	switch o {
	case OperationFlip, OperationRotate, OperationGrayscale:
		return true
	}
	return false
}

func (m Mode) Valid() bool {
	return m == ModeSerial || m == ModeParallel
}

func ParseOperation(raw string) (Operation, error) {
	op := Operation(raw)
	if !op.Valid() {
		return "", perrors.Newf(perrors.KindValidation, "model.parse-operation", "unrecognized operation %q", raw)
	}
	return op, nil
}

func ParseMode(raw string) (Mode, error) {
	mode := Mode(raw)
	if !mode.Valid() {
		return "", perrors.Newf(perrors.KindValidation, "model.parse-mode", "unrecognized mode %q", raw)
	}
	return mode, nil
}
