package aml

// opcode identifies a decoded AML opcode. Values 0x00-0xff are single-byte
// opcodes; values 0x5b00-0x5bff are two-byte opcodes introduced by the
// extended-table prefix (0x5b). Grounded on the teacher's opcode_table.go,
// which uses the real ACPI-assigned byte values for the same constants.
type opcode uint16

const extOpPrefix = 0x5b

const (
	opZero             = opcode(0x00)
	opOne              = opcode(0x01)
	opAlias            = opcode(0x06)
	opName             = opcode(0x08)
	opBytePrefix       = opcode(0x0a)
	opWordPrefix       = opcode(0x0b)
	opDwordPrefix      = opcode(0x0c)
	opStringPrefix     = opcode(0x0d)
	opQwordPrefix      = opcode(0x0e)
	opScope            = opcode(0x10)
	opBuffer           = opcode(0x11)
	opPackage          = opcode(0x12)
	opVarPackage       = opcode(0x13)
	opMethod           = opcode(0x14)
	opExternal         = opcode(0x15)
	opLocal0           = opcode(0x60)
	opLocal1           = opcode(0x61)
	opLocal2           = opcode(0x62)
	opLocal3           = opcode(0x63)
	opLocal4           = opcode(0x64)
	opLocal5           = opcode(0x65)
	opLocal6           = opcode(0x66)
	opLocal7           = opcode(0x67)
	opArg0             = opcode(0x68)
	opArg1             = opcode(0x69)
	opArg2             = opcode(0x6a)
	opArg3             = opcode(0x6b)
	opArg4             = opcode(0x6c)
	opArg5             = opcode(0x6d)
	opArg6             = opcode(0x6e)
	opStore            = opcode(0x70)
	opRefOf            = opcode(0x71)
	opAdd              = opcode(0x72)
	opConcat           = opcode(0x73)
	opSubtract         = opcode(0x74)
	opIncrement        = opcode(0x75)
	opDecrement        = opcode(0x76)
	opMultiply         = opcode(0x77)
	opDivide           = opcode(0x78)
	opShiftLeft        = opcode(0x79)
	opShiftRight       = opcode(0x7a)
	opAnd              = opcode(0x7b)
	opNand             = opcode(0x7c)
	opOr               = opcode(0x7d)
	opNor              = opcode(0x7e)
	opXor              = opcode(0x7f)
	opNot              = opcode(0x80)
	opFindSetLeftBit   = opcode(0x81)
	opFindSetRightBit  = opcode(0x82)
	opDerefOf          = opcode(0x83)
	opConcatRes        = opcode(0x84)
	opMod              = opcode(0x85)
	opNotify           = opcode(0x86)
	opSizeOf           = opcode(0x87)
	opIndex            = opcode(0x88)
	opMatch            = opcode(0x89)
	opCreateDWordField = opcode(0x8a)
	opCreateWordField  = opcode(0x8b)
	opCreateByteField  = opcode(0x8c)
	opCreateBitField   = opcode(0x8d)
	opObjectType       = opcode(0x8e)
	opCreateQWordField = opcode(0x8f)
	opLand             = opcode(0x90)
	opLor              = opcode(0x91)
	opLnot             = opcode(0x92)
	opLEqual           = opcode(0x93)
	opLGreater         = opcode(0x94)
	opLLess            = opcode(0x95)
	opToBuffer         = opcode(0x96)
	opToDecimalString  = opcode(0x97)
	opToHexString      = opcode(0x98)
	opToInteger        = opcode(0x99)
	opToString         = opcode(0x9c)
	opCopyObject       = opcode(0x9d)
	opMid              = opcode(0x9e)
	opContinue         = opcode(0x9f)
	opIf               = opcode(0xa0)
	opElse             = opcode(0xa1)
	opWhile            = opcode(0xa2)
	opNoop             = opcode(0xa3)
	opReturn           = opcode(0xa4)
	opBreak            = opcode(0xa5)
	opBreakPoint       = opcode(0xcc)
	opOnes             = opcode(0xff)

	// Extended (0x5b-prefixed) opcodes.
	opMutex       = opcode(0x5b01)
	opEvent       = opcode(0x5b02)
	opCondRefOf   = opcode(0x5b12)
	opCreateField = opcode(0x5b13)
	opLoadTable   = opcode(0x5b1f)
	opLoad        = opcode(0x5b20)
	opStall       = opcode(0x5b21)
	opSleep       = opcode(0x5b22)
	opAcquire     = opcode(0x5b23)
	opSignal      = opcode(0x5b24)
	opWait        = opcode(0x5b25)
	opReset       = opcode(0x5b26)
	opRelease     = opcode(0x5b27)
	opFromBCD     = opcode(0x5b28)
	opToBCD       = opcode(0x5b29)
	opUnload      = opcode(0x5b2a)
	opRevision    = opcode(0x5b30)
	opDebug       = opcode(0x5b31)
	opFatal       = opcode(0x5b32)
	opTimer       = opcode(0x5b33)
	opOpRegion    = opcode(0x5b80)
	opField       = opcode(0x5b81)
	opDevice      = opcode(0x5b82)
	opProcessor   = opcode(0x5b83)
	opPowerRes    = opcode(0x5b84)
	opThermalZone = opcode(0x5b85)
	opIndexField  = opcode(0x5b86)
	opBankField   = opcode(0x5b87)
	opDataRegion  = opcode(0x5b88)
)

// isNamedOpcode reports whether op creates a namespace node,
// meaning the namespace pre-pass (spec.md 4.3 tree build / "two-pass
// evaluation" note in 9) must discover it.
func isNamedOpcode(op opcode) bool {
	switch op {
	case opAlias, opName, opScope, opMethod, opExternal, opMutex, opEvent,
		opOpRegion, opField, opDevice, opProcessor, opPowerRes, opThermalZone,
		opIndexField, opBankField, opDataRegion,
		opCreateDWordField, opCreateWordField, opCreateByteField, opCreateBitField,
		opCreateQWordField, opCreateField:
		return true
	}
	return false
}

// isScopedOpcode reports whether op pushes a new current scope around a
// nested term list (Method/Device/Scope/Processor/PowerRes/ThermalZone).
func isScopedOpcode(op opcode) bool {
	switch op {
	case opMethod, opDevice, opScope, opProcessor, opPowerRes, opThermalZone:
		return true
	}
	return false
}

// isExpressionOpcode reports whether op is an ExpressionOpcode that
// produces a value (spec.md 4.7), as opposed to a StatementOpcode (4.8) or
// a namespace modifier / named object definition (4.9/4.10).
func isExpressionOpcode(op opcode) bool {
	switch op {
	case opZero, opOne, opOnes, opBytePrefix, opWordPrefix, opDwordPrefix,
		opStringPrefix, opQwordPrefix, opRevision, opBuffer, opPackage, opVarPackage,
		opLocal0, opLocal1, opLocal2, opLocal3, opLocal4, opLocal5, opLocal6, opLocal7,
		opArg0, opArg1, opArg2, opArg3, opArg4, opArg5, opArg6,
		opStore, opRefOf, opAdd, opConcat, opSubtract, opIncrement, opDecrement,
		opMultiply, opDivide, opShiftLeft, opShiftRight, opAnd, opNand, opOr, opNor,
		opXor, opNot, opFindSetLeftBit, opFindSetRightBit, opDerefOf, opConcatRes,
		opMod, opSizeOf, opIndex, opMatch, opObjectType, opLand, opLor, opLnot,
		opLEqual, opLGreater, opLLess, opToBuffer, opToDecimalString, opToHexString,
		opToInteger, opToString, opCopyObject, opMid, opCondRefOf, opLoadTable, opLoad,
		opAcquire, opWait, opFromBCD, opToBCD, opDebug, opTimer:
		return true
	}
	return false
}
