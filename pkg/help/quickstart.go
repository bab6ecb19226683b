package help

const QuickstartYAML = `# doculens Quick Start

inputs:
  vocabulary: "One term per row. .xlsx/.csv: first column after a header row; .txt: one term per line"
  documents: "Folder of documents, non-recursive. PDF by default, add --ext .txt/.html/.md for others"

mean_strategies:
  pooled: "Overall Mean = total occurrences / total tokens across the batch (default)"
  per-document: "Overall Mean = average of per-document means over readable documents"

output_formats:
  xlsx: "Frequencies sheet, plus a Failures sheet when documents could not be read (default)"
  csv: "Header row then one row per term"
  json: "Structured report with documents, terms and failures"
  yaml: "Same structure as json"

commands:
  basic_count: |
    doculens count --vocab terms.xlsx --docs ./pdfs --output report.xlsx

  sorted_csv: |
    doculens count --vocab terms.csv --docs ./pdfs --output report.csv --sort total --keep-columns

  per_document_mean: |
    doculens count --vocab terms.txt --docs ./pdfs --output report.json --mean per-document

  mixed_inputs: |
    doculens count --vocab terms.txt --docs ./corpus --ext .pdf --ext .html --ext .txt --output report.xlsx

  language_detection: |
    doculens count --vocab terms.xlsx --docs ./pdfs --output report.xlsx --detect-language --language en --language fr

  config_file: |
    doculens count --config doculens.yaml --workers 8

  list_runs: |
    doculens history
    doculens history list --failed --limit 5

  run_details: |
    doculens history show
    doculens history show 6f1c2a9e

config_file_example: |
  vocabulary: terms.xlsx
  documents: ./pdfs
  output: report.xlsx
  workers: 4
  document_timeout: 2m
  mean_strategy: pooled
  sort_by_total: true
  keep_columns: true
  extensions: [".pdf"]

environment:
  - "DOCULENS_VOCAB, DOCULENS_DOCS, DOCULENS_OUTPUT, DOCULENS_WORKERS, DOCULENS_MEAN, ..."
  - "Priority: defaults < --config file < environment < flags"

key_files:
  - "<output> (the frequency report)"
  - "<output base>.manifest.yaml (run summary, per-document tokens and keywords)"
  - "doculens.db next to the binary (run history, override with --db)"

counting_rules:
  - "Text is lowercased and split on anything that is not a letter or digit"
  - "Vocabulary terms are single words; duplicates are ignored after the first"
  - "Documents are processed in parallel but columns keep folder order"
  - "A document that cannot be read gets zero counts and is listed under failures"

error_behavior:
  - "Bad vocabulary, missing folder or bad flags: exit before any document is read"
  - "Unreadable documents: logged, report still written"
  - "Interrupted (Ctrl-C): no report written"
  - "Exit codes: 0=success, 1=some documents failed, 2=fatal"
`
