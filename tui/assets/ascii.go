package assets

// Logo is shown in the operation TUI header and during first-time setup.
const Logo = `   .----.  .----.
   | {} |  | >_ |
   '----'  '----'
    \ (o.o) /
     =[===]=`
