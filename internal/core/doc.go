// Package core provides the business logic for spreadsheet-to-SQL imports.
//
// The package is independent of any UI or transport layer. Web handlers, the
// CLI and tests all drive it the same way.
//
// # Data Flow
//
//  1. A [TableSchema] describes the target table. Each field's declared SQL
//     type is classified once into a [TypeInfo].
//  2. [AutoMap] guesses a [ColumnMapping] from header names using [Score],
//     skipping identity fields, and proposes transforms per mapped field.
//  3. The [Pipeline] applies cell overrides and the assigned transforms,
//     validates every mapped cell with [ValidateCell], and renders SQL
//     literals with [SanitizeChecked].
//  4. The [PipelineResult] carries emitted rows in row order, the
//     [ValidationResult] aggregate, and a [RowError] for every excluded row.
//
// Assembling INSERT text from a result lives in the generator package; COPY
// into Postgres lives in the loader package.
//
// A [TemplateStore] remembers mappings that worked, so a later file with the
// same headers can reuse one instead of going through step 2 again.
//
// # Strict and Lenient APIs
//
// Transforms and the sanitizer report failures as errors
// ([ApplyTransformation], [SanitizeValue]). The lenient wrappers
// ([ApplyTransformationLenient], [SafeSanitizeValue]) fall back to the
// original value or NULL. [PipelineOptions] selects which the pipeline uses.
//
// # Cell Values
//
// [CellValue] is a closed variant: null, text, number or bool. Null and the
// empty string both count as empty for NOT NULL checks, but the original
// value is kept for display.
//
// # Concurrency
//
// Everything except [SchemaCatalog], [TemplateStore] and [ImportLimiter] is a pure function
// over immutable inputs. The pipeline processes row chunks on a bounded
// errgroup and folds the partial results in chunk order.
//
// # Error Handling
//
// [MapError] turns technical errors into a [UserMessage] with a support
// code. Validation problems are never errors; they are findings.
package core
