package diag

// Kind identifies a class of problem. The string value is stable and is
// what conformance fixtures refer to.
type Kind string

// Syntax.
const (
	SyntaxError Kind = "syntax_error"
)

// Building the vague representation.
const (
	NoEntityWithName         Kind = "no_entity_with_name"
	IOInsideMacro            Kind = "io_inside_macro"
	ReturnFromRoot           Kind = "return_from_root"
	MissingOutputDefinition  Kind = "missing_output_definition"
	MissingExportDefinition  Kind = "missing_export_definition"
	WriteToReadOnlyVariable  Kind = "write_to_read_only_variable"
	BadPropertyName          Kind = "bad_property_name"
	TooManyInlineReturns     Kind = "too_many_inline_returns"
	MissingInlineReturn      Kind = "missing_inline_return"
	NonexistentInclude       Kind = "nonexistent_include"
	DuplicateDefinition      Kind = "duplicate_definition"
	InvalidLiteral           Kind = "invalid_literal"
	ExpressionNotAssignable  Kind = "expression_not_assignable"
	StatementNotAllowedHere  Kind = "statement_not_allowed_here"
)

// Type errors.
const (
	MismatchedAssign   Kind = "mismatched_assign"
	WrongType          Kind = "wrong_type"
	NoBCTBinop         Kind = "no_bct_binop"
	BadOperandType     Kind = "bad_operand_type"
	BadArrayLiteral    Kind = "bad_array_literal"
	NotADataType       Kind = "not_a_data_type"
	ArrayBaseNotType   Kind = "array_base_not_data_type"
	AsTypeBound        Kind = "as_type_bound"
	CannotInflate      Kind = "cannot_inflate"
	NotAMacro          Kind = "not_a_macro"
	UnresolvedBoundVar Kind = "unresolved_bounded_var"
	ValueTooSmall      Kind = "value_too_small"
	ValueTooBig        Kind = "value_too_big"
	ContradictoryBound Kind = "contradictory_bound"
)

// Shape and bounds errors.
const (
	CannotIndex            Kind = "cannot_index"
	ArrayIndexNotInt       Kind = "array_index_not_int"
	ArrayIndexLessThanZero Kind = "array_index_less_than_zero"
	ArrayIndexTooBig       Kind = "array_index_too_big"
	ArraySizeLessThanOne   Kind = "array_size_less_than_one"
	ArraySizeNotInt        Kind = "array_size_not_int"
	ArraySizeNotResolved   Kind = "array_size_not_resolved"
	EmptyArrayLiteral      Kind = "empty_array_literal"
	WrongNumberOfInputs    Kind = "wrong_number_of_inputs"
	WrongNumberOfOutputs   Kind = "wrong_number_of_outputs"
	GuaranteedAssert       Kind = "guaranteed_assert"
	DivisionByZero         Kind = "division_by_zero"
	NegativeExponent       Kind = "negative_exponent"
)

// Staging errors.
const (
	ValueNotRunTimeCompatible Kind = "value_not_run_time_compatible"
	RTIndexesOnCTVariable     Kind = "rt_indexes_on_ct_variable"
	TypeNotCompileTime        Kind = "type_not_compile_time"
	CompileTimeInput          Kind = "compile_time_input"
	CompileTimeOutput         Kind = "compile_time_output"
	CompileTimeExport         Kind = "compile_time_export"
	MainVariableInStaticInit  Kind = "main_variable_in_static_init"
	MacroNotCompileTime       Kind = "macro_not_compile_time"
	DanglingValue             Kind = "dangling_value"
	LoopBoundsNotInt          Kind = "loop_bounds_not_int"
	ConditionalReturn         Kind = "conditional_return"
)
