// Package payroll holds the pay arithmetic shared by payroll create and
// replace. The functions accept figures as submitted; negative inputs pass
// straight through into the result.
package payroll

// GrossPay is base salary plus overtime (hours times rate) plus bonus.
func GrossPay(baseSalary, overtimeHours, overtimeRate, bonus float64) float64 {
	return baseSalary + overtimeHours*overtimeRate + bonus
}

// NetPay is gross pay minus deductions.
func NetPay(grossPay, deductions float64) float64 {
	return grossPay - deductions
}
